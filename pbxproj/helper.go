package pbxproj

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/soapywu/pbxedit/pegparser"
)

const COMMENT_KEY_SUFFIX = pegparser.CommentKeySuffix

func isObject(obj interface{}) bool {
	_, ok := obj.(pegparser.Object)
	return ok
}
func toObject(obj interface{}) pegparser.Object {
	return obj.(pegparser.Object)
}

func isArray(obj interface{}) bool {
	_, ok := obj.([]interface{})
	return ok
}

func toArray(obj interface{}) []interface{} {
	return obj.([]interface{})
}

func isString(obj interface{}) bool {
	_, ok := obj.(string)
	return ok
}
func toString(obj interface{}) string {
	return obj.(string)
}

func isInt(obj interface{}) bool {
	switch obj.(type) {
	case int, int8, int16, int32, int64:
		return true
	}
	return false
}
func toIntString(obj interface{}) string {
	switch obj.(type) {
	case int, int8, int16, int32, int64:
		return strconv.FormatInt(reflect.ValueOf(obj).Int(), 10)
	}

	return ""
}

func toCommentKey(key string) string {
	return key + COMMENT_KEY_SUFFIX
}

func isCommentKey(key string) bool {
	return strings.HasSuffix(key, COMMENT_KEY_SUFFIX)
}

func nonCommentsFilter(key string, v interface{}) bool {
	return !isCommentKey(key)
}

func interfaceToStringSlice(val interface{}) []string {
	if val == nil {
		return nil
	}
	switch val := val.(type) {
	case []interface{}:
		result := make([]string, 0, len(val))
		for _, v := range val {
			switch v := v.(type) {
			case string:
				result = append(result, v)
			case pegparser.Object:
				result = append(result, v.GetString("value"))
			default:
				result = append(result, toIntString(v))
			}
		}
		return result
	case string:
		return []string{val}
	default:
		return nil
	}
}

// uniqueStrings drops repeated values, keeping first occurrences in order.
func uniqueStrings(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, v := range list {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

type CommentValue struct {
	Value   string
	Comment string
}

func (c CommentValue) ToObject() pegparser.Object {
	return pegparser.NewObjectWithData([]pegparser.SliceItem{
		pegparser.NewObjectItem("value", c.Value),
		pegparser.NewObjectItem("comment", c.Comment),
	})
}

// commentValueOf reads a list item written either as `ID /* comment */` or
// as a bare `ID`.
func commentValueOf(item interface{}) (CommentValue, bool) {
	switch v := item.(type) {
	case string:
		return CommentValue{Value: v}, true
	case pegparser.Object:
		value := v.GetString("value")
		if value == "" {
			return CommentValue{}, false
		}
		return CommentValue{Value: value, Comment: v.GetString("comment")}, true
	}
	return CommentValue{}, false
}

var unquotedRegex = regexp.MustCompile(`(^")|("$)`)

func unquoted(text string) string {
	if text == "" {
		return text
	}
	return unquotedRegex.ReplaceAllString(text, "")
}

var bareWordRegex = regexp.MustCompile(`^[A-Za-z0-9_$/:.]+$`)

// quoted renders s the way the manifest stores it: bare when it can be,
// otherwise in double quotes with `"` and `\` escaped.
func quoted(s string) string {
	if bareWordRegex.MatchString(s) {
		return s
	}
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
	return `"` + escaped + `"`
}
