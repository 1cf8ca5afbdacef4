// Пакет model — сущности портала и формы их создания/изменения.
//
// Для каждой сущности три формы:
//   - сама сущность (ответ API)
//   - XxxCreate — payload создания, все обязательные поля с тегами validate
//   - XxxPatch — payload частичного изменения: поля-указатели с omitempty,
//     не заданные поля сервер не меняет
package model

// Owned — форма, принадлежащая пользователю (userId).
// Hook заполняет владельца из сессии, если он не задан.
type Owned interface {
	OwnerID() int64
	SetOwnerID(id int64)
}

// AssetTarget — форма, в которую складывается URL загруженного файла.
type AssetTarget interface {
	SetAssetURL(url string)
}

// Named — сущность с id и отображаемым именем (для поиска родителя).
type Named interface {
	EntityID() int64
	DisplayName() string
}

// Child — сущность со ссылкой на родителя (кафедра → факультет,
// преподаватель → кафедра). Ссылка непрозрачна: родителя может не быть.
type Child interface {
	ParentID() int64
}

// ptr возвращает указатель на значение.
func ptr[T any](v T) *T { return &v }

// String возвращает указатель на строку (для Patch-форм).
func String(s string) *string { return ptr(s) }

// Int возвращает указатель на int (для Patch-форм).
func Int(v int) *int { return ptr(v) }

// Int64 возвращает указатель на int64 (для Patch-форм и необязательных фильтров).
func Int64(v int64) *int64 { return ptr(v) }
