// key.go — структурированный ключ запроса.
// Ключи создаются только через NewKey/UserKey, поэтому ключ чтения и
// инвалидация по имени ресурса не могут разойтись.
package query

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Key — идентификатор закэшированного чтения:
// имя ресурса + область (владелец) + параметры запроса.
type Key struct {
	// Resource — имя ресурса (единица инвалидации)
	Resource string
	// Scope — область чтения: "all" или "user:{id}"
	Scope string
	// Params — параметры запроса (page, size, фильтры)
	Params url.Values
}

// NewKey создаёт ключ общего (не пользовательского) чтения.
func NewKey(resource string, params url.Values) Key {
	return Key{Resource: resource, Scope: "all", Params: params}
}

// UserKey создаёт ключ чтения, принадлежащего пользователю.
func UserKey(resource string, userID int64, params url.Values) Key {
	return Key{Resource: resource, Scope: "user:" + strconv.FormatInt(userID, 10), Params: params}
}

// String возвращает каноническое представление ключа.
// url.Values.Encode сортирует параметры, поэтому равные наборы дают равные ключи.
func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%016x", k.Resource, k.Scope, xxhash.Sum64String(k.Params.Encode()))
}
