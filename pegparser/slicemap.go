package pegparser

type mapItem struct {
	data interface{}
	idx  int
}

type SliceItem struct {
	key  interface{}
	data interface{}
}

func (i SliceItem) Key() interface{} {
	return i.key
}

func (i SliceItem) Value() interface{} {
	return i.data
}

// SliceMap is a map that remembers insertion order. Set on an existing key
// keeps the key's position.
type SliceMap struct {
	mp map[interface{}]*mapItem
	sl []*SliceItem
}

func NewSliceMap() *SliceMap {
	return &SliceMap{
		mp: make(map[interface{}]*mapItem),
		sl: make([]*SliceItem, 0),
	}
}

func (m *SliceMap) ForceGet(key interface{}) interface{} {
	v, found := m.mp[key]
	if found {
		return v.data
	}
	return nil
}

func (m *SliceMap) Get(key interface{}) (interface{}, bool) {
	v, found := m.mp[key]
	if found {
		return v.data, true
	}
	return nil, false
}

func (m *SliceMap) Set(key, v interface{}) {
	old, found := m.mp[key]
	if found {
		old.data = v
		m.sl[old.idx] = &SliceItem{
			data: v,
			key:  key,
		}
		return
	}
	m.sl = append(m.sl, &SliceItem{key: key, data: v})
	m.mp[key] = &mapItem{
		data: v,
		idx:  len(m.sl) - 1,
	}
}

// InsertAt places a new key at idx, shifting later keys. An existing key is
// only updated in place.
func (m *SliceMap) InsertAt(idx int, key, v interface{}) {
	if m.Has(key) {
		m.Set(key, v)
		return
	}
	if idx < 0 {
		idx = 0
	}
	if idx >= len(m.sl) {
		m.Set(key, v)
		return
	}
	m.sl = append(m.sl, nil)
	copy(m.sl[idx+1:], m.sl[idx:])
	m.sl[idx] = &SliceItem{key: key, data: v}
	m.mp[key] = &mapItem{data: v}
	m.reindex(idx)
}

func (m *SliceMap) Has(key interface{}) bool {
	_, found := m.mp[key]
	return found
}

func (m *SliceMap) Index(key interface{}) int {
	v, found := m.mp[key]
	if !found {
		return -1
	}
	return v.idx
}

func (m *SliceMap) Delete(key interface{}) {
	old, found := m.mp[key]
	if found {
		m.DeleteAt(old.idx)
	}
}

func (m *SliceMap) Clear() {
	m.mp = make(map[interface{}]*mapItem)
	m.sl = make([]*SliceItem, 0)
}

func (m *SliceMap) Size() int {
	return len(m.sl)
}

func (m *SliceMap) Items() []*SliceItem {
	return m.sl
}

func (m *SliceMap) GetAt(idx int) (interface{}, bool) {
	if idx < 0 || idx >= len(m.sl) {
		return nil, false
	}
	return m.sl[idx].data, true
}

func (m *SliceMap) DeleteAt(idx int) {
	if idx < 0 || idx >= len(m.sl) {
		return
	}
	old := m.sl[idx]
	m.sl = append(m.sl[0:idx], m.sl[idx+1:]...)
	delete(m.mp, old.key)
	m.reindex(idx)
}

// positions after a structural change start at from
func (m *SliceMap) reindex(from int) {
	for i := from; i < len(m.sl); i++ {
		m.mp[m.sl[i].key].idx = i
	}
}
