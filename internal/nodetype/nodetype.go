// Package nodetype defines the closed set of type tags a document may use and
// which collection each of them belongs to.
package nodetype

// Execution node tags.
const (
	LLM                 = "llm"
	FunctionFromFile    = "function_from_file"
	FunctionFromLibrary = "function_from_library"
	Retriever           = "retriever"
	DataLoader          = "data_loader"
	DataSaver           = "data_saver"
	TextSplitter        = "text_splitter"
	Subgraph            = "subgraph"

	// LegacySubgraph is the older spelling of Subgraph.
	LegacySubgraph = "from_yaml"
)

// Non-execution (reference) tags.
const (
	Embedding   = "embedding"
	VectorStore = "vector_store"
)

// Class says where a type tag may appear.
type Class int

const (
	// Unsupported tags may not appear anywhere.
	Unsupported Class = iota
	// Execution tags may only appear in the nodes collection.
	Execution
	// NonExecution tags may only appear in the references collection.
	NonExecution
)

func (c Class) String() string {
	switch c {
	case Execution:
		return "execution"
	case NonExecution:
		return "non-execution"
	default:
		return "unsupported"
	}
}

var classes = map[string]Class{
	LLM:                 Execution,
	FunctionFromFile:    Execution,
	FunctionFromLibrary: Execution,
	Retriever:           Execution,
	DataLoader:          Execution,
	DataSaver:           Execution,
	TextSplitter:        Execution,
	Subgraph:            Execution,
	LegacySubgraph:      Execution,
	Embedding:           NonExecution,
	VectorStore:         NonExecution,
}

// Classify returns the class of tag.
func Classify(tag string) Class {
	return classes[tag]
}

// IsSubgraph reports whether tag names a sub-graph node.
func IsSubgraph(tag string) bool {
	return tag == Subgraph || tag == LegacySubgraph
}

// Tags returns every tag of the given class.
func Tags(c Class) []string {
	var out []string
	for tag, cls := range classes {
		if cls == c {
			out = append(out, tag)
		}
	}
	return out
}
