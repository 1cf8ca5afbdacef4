// upload.go — загрузка файлов (изображения, PDF) multipart-запросом.
package apiclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

// AssetKind — тип загружаемого файла.
type AssetKind string

const (
	// AssetImage — изображение (фото преподавателя, логотип факультета).
	AssetImage AssetKind = "image"
	// AssetPDF — PDF-документ (публикация, награда, исследование).
	AssetPDF AssetKind = "pdf"
)

// ParseAssetKind проверяет строковое значение типа файла.
func ParseAssetKind(s string) (AssetKind, error) {
	switch AssetKind(strings.ToLower(strings.TrimSpace(s))) {
	case AssetImage:
		return AssetImage, nil
	case AssetPDF:
		return AssetPDF, nil
	default:
		return "", fmt.Errorf("недопустимый тип файла %q, допустимые: image, pdf", s)
	}
}

// Asset — локальный файл, прикреплённый к форме до сохранения сущности.
// Живёт только до подстановки ResolvedURL в payload.
type Asset struct {
	// Filename — имя файла, передаётся в multipart
	Filename string
	// Body — содержимое файла
	Body io.Reader
}

// Upload передаёт файл multipart-запросом (поле file) и возвращает URL,
// присвоенный сервером. Тело отправляется потоком (chunked), без копии в памяти.
// Отказ сервера — UploadError с его сообщением.
func (c *Client) Upload(ctx context.Context, asset Asset, kind AssetKind) (string, error) {
	const op = "upload"

	path, ok := c.uploadPaths[kind]
	if !ok {
		return "", &UploadError{Message: fmt.Sprintf("неизвестный тип файла %q", kind)}
	}
	if asset.Body == nil {
		return "", &UploadError{Message: "файл не выбран"}
	}
	if kind == AssetPDF && !strings.EqualFold(filepath.Ext(asset.Filename), ".pdf") {
		return "", &UploadError{Message: "ожидался PDF-файл"}
	}

	// Файл не буферизуется: multipart пишется в pipe, пока транспорт читает тело
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(asset.Filename))
		if err == nil {
			_, err = io.Copy(part, asset.Body)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := c.newRequest(ctx, http.MethodPost, path, nil, pr)
	if err != nil {
		pr.CloseWithError(err)
		return "", fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	_, body, err := c.send(op, req)
	if err != nil {
		var te *TransportError
		if errors.As(err, &te) {
			return "", &UploadError{StatusCode: te.StatusCode, Message: te.ServerMessage}
		}
		return "", err
	}

	resolved, err := resolvedURL(body)
	if err != nil {
		return "", err
	}
	return resolved, nil
}
