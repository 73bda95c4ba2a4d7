package formx

import (
	"errors"
	"net/url"
	"reflect"
	"sort"

	"github.com/gorilla/schema"
)

// SchemaEncoder 是默认的表单编码器，与 SchemaDecoder 共用 form alias tag，
// 保证 Marshal 出来的键能被 FromRequest 原样解回。
var SchemaEncoder = func() *schema.Encoder {
	e := schema.NewEncoder()
	e.SetAliasTag("form")
	return e
}()

// Marshal 把结构体编码为有序键值对。
// slice 字段展开为同名键的多次出现，顺序与元素顺序一致，
// 因此 Marshal -> Encode -> FromRequest 对无损的标量/序列字段是恒等往返。
//
// 键的顺序取字段声明顺序（struct 元数据缓存），编码器产出的
// 额外键（未在顶层声明的）按字典序补在末尾，保证输出可重现。
func Marshal(v any) (Pairs, error) {
	if v == nil {
		return nil, errors.New("formx: cannot marshal nil value")
	}

	values := url.Values{}
	if err := SchemaEncoder.Encode(v, values); err != nil {
		return nil, err
	}

	meta := getStructMeta(reflect.TypeOf(v))

	pairs := make(Pairs, 0, len(values))
	seen := make(map[string]struct{}, len(values))

	for _, key := range meta.keys {
		vs, ok := values[key]
		if !ok {
			continue
		}
		seen[key] = struct{}{}
		for _, value := range vs {
			pairs = append(pairs, Pair{Key: key, Value: value})
		}
	}

	// 元数据覆盖不到的键（如内嵌结构展开出来的）排序后追加
	rest := make([]string, 0, len(values))
	for key := range values {
		if _, ok := seen[key]; !ok {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		for _, value := range values[key] {
			pairs = append(pairs, Pair{Key: key, Value: value})
		}
	}

	return pairs, nil
}
