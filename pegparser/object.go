package pegparser

import (
	"encoding/json"
	"reflect"

	"github.com/goccy/go-yaml"
)

type IterateActionType = int8

const (
	IterateActionContinue IterateActionType = iota
	IterateActionBreak
)

type ObjectItem = SliceItem

// Object is an ordered dictionary, the value type of every `{ ... }` in a
// parsed manifest. Values are string, int, []interface{} or Object.
type Object struct {
	*SliceMap
}

func NewObjectItem(key string, value interface{}) ObjectItem {
	return SliceItem{key, value}
}

func NewObject() Object {
	return Object{
		SliceMap: NewSliceMap(),
	}
}

func NewObjectWithData(items []ObjectItem) Object {
	o := NewObject()
	for _, item := range items {
		o.Set(item.key, item.data)
	}

	return o
}

func (o Object) toMarshalJSONData() map[string]interface{} {
	dataMap := make(map[string]interface{})
	o.Foreach(func(key string, val interface{}) IterateActionType {
		obj, ok := val.(Object)
		if ok {
			dataMap[key] = obj.toMarshalJSONData()
		} else {
			dataMap[key] = val
		}
		return IterateActionContinue
	})
	return dataMap
}

func (o Object) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.toMarshalJSONData())
}

func toYAMLValue(val interface{}) interface{} {
	switch v := val.(type) {
	case Object:
		return v.toYAMLData()
	case []interface{}:
		list := make([]interface{}, len(v))
		for i, item := range v {
			list[i] = toYAMLValue(item)
		}
		return list
	default:
		return v
	}
}

func (o Object) toYAMLData() yaml.MapSlice {
	data := yaml.MapSlice{}
	o.Foreach(func(key string, val interface{}) IterateActionType {
		data = append(data, yaml.MapItem{Key: key, Value: toYAMLValue(val)})
		return IterateActionContinue
	})
	return data
}

// MarshalYAML keeps key order, unlike the JSON form.
func (o Object) MarshalYAML() (interface{}, error) {
	return o.toYAMLData(), nil
}

func (o Object) IsEmpty() bool {
	if o.SliceMap == nil || o.sl == nil {
		return true
	}
	return o.Size() == 0
}

func (o Object) GetObject(key string) Object {
	if o.SliceMap == nil {
		return NewObject()
	}
	if value, ok := o.Get(key); ok {
		if obj, ok := value.(Object); ok {
			return obj
		}
	}
	return NewObject()
}

func (o Object) GetString(key string) string {
	if o.SliceMap == nil {
		return ""
	}
	if value, ok := o.Get(key); ok {
		switch v := value.(type) {
		case string:
			return v
		default:
			return ""
		}
	}
	return ""
}

func (o Object) GetInt(key string) int {
	if o.SliceMap == nil {
		return 0
	}
	if value, ok := o.Get(key); ok {
		switch value.(type) {
		case int, int8, int16, int32, int64:
			return int(reflect.ValueOf(value).Int())
		}
	}
	return 0
}

func (o Object) GetList(key string) []interface{} {
	if o.SliceMap == nil {
		return nil
	}
	if value, ok := o.Get(key); ok {
		if list, ok := value.([]interface{}); ok {
			return list
		}
	}
	return nil
}

func (o Object) Keys() []string {
	if o.IsEmpty() {
		return nil
	}
	keys := make([]string, 0, o.Size())
	for _, item := range o.Items() {
		keys = append(keys, item.key.(string))
	}
	return keys
}

// Clone copies the object and everything nested in it. Strings and ints are
// shared, lists and objects are not.
func (o Object) Clone() Object {
	if o.SliceMap == nil {
		return Object{}
	}
	c := NewObject()
	for _, item := range o.Items() {
		c.Set(item.key, cloneValue(item.data))
	}
	return c
}

func cloneValue(val interface{}) interface{} {
	switch v := val.(type) {
	case Object:
		return v.Clone()
	case []interface{}:
		list := make([]interface{}, len(v))
		for i, item := range v {
			list[i] = cloneValue(item)
		}
		return list
	default:
		return v
	}
}

type ApplyFunc = func(key string, val interface{}) IterateActionType
type FilterFunc = func(key string, val interface{}) bool

func (o Object) Foreach(apply ApplyFunc) {
	if o.IsEmpty() {
		return
	}
	for _, item := range o.Items() {
		if item.data == nil {
			continue
		}
		action := apply(item.key.(string), item.data)
		if action == IterateActionBreak {
			break
		}
	}
}

func (o Object) ForeachWithFilter(apply ApplyFunc, filter FilterFunc) {
	if o.IsEmpty() {
		return
	}
	for _, item := range o.Items() {
		key := item.key.(string)
		val := item.data
		if val == nil {
			continue
		}
		if filter(key, val) {
			action := apply(key, val)
			if action == IterateActionBreak {
				break
			}
		}
	}
}

func (o Object) Filter(f func(key string, val interface{}) bool) Object {
	newObj := NewObject()
	if o.IsEmpty() {
		return newObj
	}
	for _, item := range o.Items() {
		key := item.key.(string)
		val := item.data
		if f(key, val) {
			newObj.Set(key, val)
		}
	}
	return newObj
}
