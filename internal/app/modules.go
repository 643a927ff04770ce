package app

import (
	"github.com/vk/blockgraph/internal/registry"
	"github.com/vk/blockgraph/modules/dataloader"
	"github.com/vk/blockgraph/modules/embedding"
	"github.com/vk/blockgraph/modules/function"
	"github.com/vk/blockgraph/modules/llm"
	"github.com/vk/blockgraph/modules/print"
	"github.com/vk/blockgraph/modules/textsplitter"
	"github.com/vk/blockgraph/modules/vectorstore"
)

// coreModules is the definitive list of all modules that are compiled into
// the blockgraph binary.
func coreModules() []registry.Module {
	return []registry.Module{
		&function.Module{},
		&print.Module{},
		&llm.Module{},
		&embedding.Module{},
		&vectorstore.Module{},
		&dataloader.Module{},
		&textsplitter.Module{},
	}
}
