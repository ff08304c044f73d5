package layout

import "waspy/internal/types"

type cache struct {
	byType map[types.TypeID]*RecordLayout
}

func newCache() *cache {
	return &cache{byType: make(map[types.TypeID]*RecordLayout, 32)}
}

func (c *cache) get(id types.TypeID) (*RecordLayout, bool) {
	if c == nil {
		return nil, false
	}
	l, ok := c.byType[id]
	return l, ok
}

func (c *cache) put(id types.TypeID, l *RecordLayout) {
	if c == nil {
		return
	}
	if l == nil {
		delete(c.byType, id)
		return
	}
	c.byType[id] = l
}
