package provider

// Kind identifies a behaviour kind. By default a kind applies to entities whose
// type tag equals the kind identifier.
type Kind string

// Kinds shipped with behaviourgrid.
const (
	KindHTTP    Kind = "http"
	KindJSONRPC Kind = "jsonrpc"
)

func (k Kind) String() string { return string(k) }
