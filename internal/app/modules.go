package app

import (
	"time"

	"github.com/specialistvlad/behaviourgrid/internal/provider"
	"github.com/specialistvlad/behaviourgrid/modules/http_behaviour"
	"github.com/specialistvlad/behaviourgrid/modules/jsonrpc"
)

// coreModules is the definitive list of all behaviour modules that are
// compiled into the behaviourgrid binary.
func coreModules(httpTimeout time.Duration) []provider.Module {
	return []provider.Module{
		&http_behaviour.Module{Timeout: httpTimeout},
		&jsonrpc.Module{Timeout: httpTimeout},
	}
}
