package uploader

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// Source 上传源. Open 可以被多次调用，每次从头读取.
type Source interface {
	Name() string
	MimeType() string
	Size() int64
	Open() (io.ReadCloser, error)
}

// retainable 源是否能在本次请求之后继续打开.
type retainable interface {
	Retainable() bool
}

// previewer 源可以提供本地预览地址.
type previewer interface {
	PreviewURL() string
}

func canRetain(src Source) bool {
	if r, ok := src.(retainable); ok {
		return r.Retainable()
	}

	return true
}

func previewOf(src Source) string {
	if p, ok := src.(previewer); ok {
		return p.PreviewURL()
	}

	return ""
}

// FileSource 本地文件.
type FileSource struct {
	path string
	mime string
	size int64
}

// NewFileSource 打开本地文件作为上传源. mimeType 为空时按内容识别.
func NewFileSource(path, mimeType string) (*FileSource, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fi, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}

	if fi.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	if mimeType == "" {
		mt, err := mimetype.DetectFile(abs)
		if err != nil {
			return nil, fmt.Errorf("detect mime type: %w", err)
		}

		mimeType = mt.String()
	}

	return &FileSource{path: abs, mime: mimeType, size: fi.Size()}, nil
}

func (f *FileSource) Name() string       { return filepath.Base(f.path) }
func (f *FileSource) MimeType() string   { return f.mime }
func (f *FileSource) Size() int64        { return f.size }
func (f *FileSource) PreviewURL() string { return "file://" + filepath.ToSlash(f.path) }

func (f *FileSource) Open() (io.ReadCloser, error) {
	return os.Open(f.path)
}

// MultipartSource HTTP 表单文件. 请求结束后临时文件被删除，所以不能保留用于重试.
type MultipartSource struct {
	fh   *multipart.FileHeader
	mime string
}

// NewMultipartSource 包装表单文件；declared 为空时取表单的 Content-Type.
func NewMultipartSource(fh *multipart.FileHeader, declared string) *MultipartSource {
	if declared == "" {
		declared = fh.Header.Get("Content-Type")
	}

	return &MultipartSource{fh: fh, mime: declared}
}

func (m *MultipartSource) Name() string     { return m.fh.Filename }
func (m *MultipartSource) MimeType() string { return m.mime }
func (m *MultipartSource) Size() int64      { return m.fh.Size }
func (m *MultipartSource) Retainable() bool { return false }

func (m *MultipartSource) Open() (io.ReadCloser, error) {
	return m.fh.Open()
}

// BytesSource 内存中的数据.
type BytesSource struct {
	name string
	mime string
	data []byte
}

// NewBytesSource 创建内存上传源.
func NewBytesSource(name, mimeType string, data []byte) *BytesSource {
	return &BytesSource{name: name, mime: mimeType, data: data}
}

func (b *BytesSource) Name() string     { return b.name }
func (b *BytesSource) MimeType() string { return b.mime }
func (b *BytesSource) Size() int64      { return int64(len(b.data)) }

func (b *BytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.data)), nil
}
