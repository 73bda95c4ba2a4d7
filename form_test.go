package formx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock Structures ---

type MultiValueForm struct {
	Values []string `form:"value"`
}

type IntForm struct {
	A int `form:"a"`
}

type MixedForm struct {
	Name  string   `form:"name"`
	Tags  []string `form:"tags"`
	Count int      `form:"count"`
}

func postForm(body string) *http.Request {
	r := httptest.NewRequest("POST", "/", strings.NewReader(body))
	r.Header.Set("Content-Type", FormContentType)
	return r
}

func getForm(t *testing.T, query string) *http.Request {
	t.Helper()
	return httptest.NewRequest("GET", "/?"+query, nil)
}

// --- Test Cases ---

func TestFromRequest_MultipleValues(t *testing.T) {
	// 重复键必须按出现顺序聚合进 slice，不能合并或覆盖
	form, err := FromRequest[MultiValueForm](postForm("value=one&value=two"))
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, form.Value.Values)
}

func TestFromRequest_RepeatedKeysNotDropped(t *testing.T) {
	form, err := FromRequest[MultiValueForm](postForm("value=a&value=a&value=b&value=a"))
	require.NoError(t, err)
	// 重复值也一个不少
	assert.Equal(t, []string{"a", "a", "b", "a"}, form.Value.Values)
}

func TestFromRequest_Success(t *testing.T) {
	form, err := FromRequest[MixedForm](postForm("name=alice&tags=x&tags=y&count=3"))
	require.NoError(t, err)
	assert.Equal(t, "alice", form.Value.Name)
	assert.Equal(t, []string{"x", "y"}, form.Value.Tags)
	assert.Equal(t, 3, form.Value.Count)
}

func TestFromRequest_DeserializeError(t *testing.T) {
	// a=false 解析不出 int，必须是 400 的反序列化拒绝，消息带字段路径
	_, err := FromRequest[IntForm](postForm("a=false"))
	require.Error(t, err)

	rejection := requireRejection(t, err)
	assert.Equal(t, RejectionDeserialize, rejection.Kind())
	assert.Equal(t, http.StatusBadRequest, rejection.Status())
	assert.True(t, strings.HasPrefix(rejection.BodyText(), DeserializePrefix+"a: "),
		"body should be path-qualified, got %q", rejection.BodyText())
}

func TestFromRequest_GetEqualsPost(t *testing.T) {
	// GET 的 Query String 与 POST 的 Body 走同一条解码路径，失败形态必须一致
	get := httptest.NewRequest("GET", "/?a=false", nil)
	_, getErr := FromRequest[IntForm](get)
	require.Error(t, getErr)

	_, postErr := FromRequest[IntForm](postForm("a=false"))
	require.Error(t, postErr)

	getRej := requireRejection(t, getErr)
	postRej := requireRejection(t, postErr)
	assert.Equal(t, postRej.Status(), getRej.Status())
	assert.Equal(t, postRej.BodyText(), getRej.BodyText())

	// 成功路径同理
	okGet := httptest.NewRequest("GET", "/?a=42", nil)
	form, err := FromRequest[IntForm](okGet)
	require.NoError(t, err)
	assert.Equal(t, 42, form.Value.A)
}

func TestFromRequest_WrongContentType(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader("a=1"))
	r.Header.Set("Content-Type", "application/json")

	_, err := FromRequest[IntForm](r)
	require.Error(t, err)

	rejection := requireRejection(t, err)
	assert.Equal(t, RejectionRawBody, rejection.Kind())
	// 状态码委托给底层错误（415），不会被硬编码成 400
	assert.Equal(t, http.StatusUnsupportedMediaType, rejection.Status())
}

func TestFromRequest_BodyTooLarge(t *testing.T) {
	w := httptest.NewRecorder()
	r := postForm("a=12345678901234567890")
	r.Body = http.MaxBytesReader(w, r.Body, 4)

	_, err := FromRequest[IntForm](r)
	require.Error(t, err)

	rejection := requireRejection(t, err)
	assert.Equal(t, RejectionRawBody, rejection.Kind())
	assert.Equal(t, http.StatusRequestEntityTooLarge, rejection.Status())
}

func TestFromRequest_EmptyBody(t *testing.T) {
	// 没有 Body 不算失败，解码零个键值对得到零值
	r := httptest.NewRequest("POST", "/", http.NoBody)
	r.Header.Set("Content-Type", FormContentType)

	form, err := FromRequest[IntForm](r)
	require.NoError(t, err)
	assert.Equal(t, 0, form.Value.A)
}

func TestFromRequest_DisallowUnknownKeys(t *testing.T) {
	// 默认忽略未知键
	form, err := FromRequest[IntForm](postForm("a=1&bogus=2"))
	require.NoError(t, err)
	assert.Equal(t, 1, form.Value.A)

	// 严格模式下未知键是反序列化拒绝，消息里带上键名
	_, err = FromRequest[IntForm](postForm("a=1&bogus=2"), WithDisallowUnknownKeys())
	require.Error(t, err)

	rejection := requireRejection(t, err)
	assert.Equal(t, RejectionDeserialize, rejection.Kind())
	assert.Equal(t, http.StatusBadRequest, rejection.Status())
	assert.Contains(t, rejection.BodyText(), "bogus")
}

func TestFromRequest_InvalidEscape(t *testing.T) {
	// 百分号解码失败属于解码阶段 -> 400 反序列化拒绝
	_, err := FromRequest[IntForm](postForm("a=%zz"))
	require.Error(t, err)

	rejection := requireRejection(t, err)
	assert.Equal(t, RejectionDeserialize, rejection.Kind())
	assert.Contains(t, rejection.BodyText(), "a")
}

func requireRejection(t *testing.T, err error) *FormRejection {
	t.Helper()
	rejection, ok := err.(*FormRejection)
	require.True(t, ok, "error should be *FormRejection, got %T", err)
	return rejection
}
