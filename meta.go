package formx

import (
	"reflect"
	"strings"

	"github.com/puzpuzpuz/xsync/v4"
)

// 结构体元数据缓存 (Type Caching)

// structMeta 保存结构体的一次性反射分析结果。
// 键名解析规则与 SchemaDecoder 一致：form tag 优先，否则用字段名。
type structMeta struct {
	// keys: 按字段声明顺序排列的顶层表单键
	keys []string
	// multiValued: 声明为 slice 的键（可聚合重复键）
	multiValued map[string]bool
}

// metaCache 缓存 reflect.Type -> *structMeta
var metaCache *xsync.Map[reflect.Type, *structMeta] = xsync.NewMap[reflect.Type, *structMeta]()

// getStructMeta 获取或解析结构体元数据 (线程安全，只解析一次)
func getStructMeta(t reflect.Type) *structMeta {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	// 1. 快速路径：缓存命中
	if v, ok := metaCache.Load(t); ok {
		return v
	}

	// 2. 慢速路径：解析结构体
	meta := &structMeta{
		multiValued: make(map[string]bool),
	}

	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}

			// 与 gorilla/schema 的 alias 解析保持一致：form tag > 字段名。
			// 这里不看 json tag，否则元数据会和实际解码用的键对不上。
			key := field.Tag.Get("form")
			if idx := strings.Index(key, ","); idx != -1 {
				key = key[:idx]
			}
			if key == "-" {
				continue
			}
			if key == "" {
				key = field.Name
			}

			meta.keys = append(meta.keys, key)
			if field.Type.Kind() == reflect.Slice {
				meta.multiValued[key] = true
			}
		}
	}

	// 3. 写入缓存
	actual, _ := metaCache.LoadOrStore(t, meta)
	return actual
}
