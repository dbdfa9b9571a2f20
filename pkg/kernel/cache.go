package kernel

import (
	"github.com/cyclopcam/nnkernel/pkg/nnlabel"
	"github.com/cyclopcam/nnkernel/pkg/nnmodel"
)

// cachedModel is one model instantiated during a runtime-selection session,
// together with its label table. The cache owns both.
type cachedModel struct {
	class  nnmodel.Class
	name   string
	model  nnmodel.Model
	labels *nnlabel.Table
}

// modelCache holds every model instantiated so far this session, keyed by
// (class, name). Entries are never evicted: the set of distinct models a
// deployment uses is small and known ahead of time, and keeping them resident
// avoids a reload stall on every model switch. Lookup is a linear scan; if
// deployments ever grow large, an index keyed by (class, name) replaces the
// scan without changing observable behavior.
type modelCache struct {
	entries []*cachedModel
}

func newModelCache() *modelCache {
	return &modelCache{}
}

func (c *modelCache) find(class nnmodel.Class, name string) *cachedModel {
	for _, e := range c.entries {
		if e.class == class && e.name == name {
			return e
		}
	}
	return nil
}

// resolve returns the cached entry for (class, name), constructing and
// appending a new one via build on first use.
func (c *modelCache) resolve(class nnmodel.Class, name string, build func(class nnmodel.Class, name string) (nnmodel.Model, *nnlabel.Table, error)) (*cachedModel, error) {
	if e := c.find(class, name); e != nil {
		return e, nil
	}
	model, labels, err := build(class, name)
	if err != nil {
		return nil, err
	}
	e := &cachedModel{
		class:  class,
		name:   name,
		model:  model,
		labels: labels,
	}
	c.entries = append(c.entries, e)
	return e, nil
}

func (c *modelCache) len() int {
	return len(c.entries)
}

// closeAll releases every cached model. Model.Close is idempotent, so this is
// safe to run more than once.
func (c *modelCache) closeAll() {
	for _, e := range c.entries {
		e.model.Close()
		e.labels = nil
	}
	c.entries = nil
}
