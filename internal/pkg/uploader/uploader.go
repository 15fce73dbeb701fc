package uploader

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
)

// MaxAttachmentSize 单个附件上限
const MaxAttachmentSize = 100 << 20

// File 待上传的本地附件
type File struct {
	Name        string
	ContentType string
	Size        int64
	open        func() (io.ReadCloser, error)
}

// Open 打开附件内容
func (f *File) Open() (io.ReadCloser, error) {
	return f.open()
}

// FromPath 从本地路径创建附件
func FromPath(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("attachment %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("attachment %s is a directory", path)
	}
	if info.Size() > MaxAttachmentSize {
		return nil, fmt.Errorf("attachment %s exceeds %d MB", path, MaxAttachmentSize>>20)
	}

	name := filepath.Base(path)
	return &File{
		Name:        name,
		ContentType: contentType(name),
		Size:        info.Size(),
		open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// FromPaths 批量创建附件
func FromPaths(paths []string) ([]*File, error) {
	files := make([]*File, 0, len(paths))
	for _, p := range paths {
		f, err := FromPath(p)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// FromBytes 从内存数据创建附件
func FromBytes(name string, data []byte) *File {
	return &File{
		Name:        name,
		ContentType: contentType(name),
		Size:        int64(len(data)),
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

func contentType(name string) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); t != "" {
		return t
	}
	return "application/octet-stream"
}

type field struct {
	name  string
	value string
}

type filePart struct {
	field string
	file  *File
}

// Form multipart 表单，字段与文件按添加顺序写出
type Form struct {
	fields []field
	files  []filePart
}

// NewForm 创建表单
func NewForm() *Form {
	return &Form{}
}

// AddField 添加字段，同名字段可重复
func (f *Form) AddField(name, value string) *Form {
	f.fields = append(f.fields, field{name: name, value: value})
	return f
}

// AddFile 添加文件
func (f *Form) AddFile(fieldName string, file *File) *Form {
	if file != nil {
		f.files = append(f.files, filePart{field: fieldName, file: file})
	}
	return f
}

// Values 字段值（测试与日志使用）
func (f *Form) Values(name string) []string {
	var out []string
	for _, fd := range f.fields {
		if fd.name == name {
			out = append(out, fd.value)
		}
	}
	return out
}

// FileNames 已添加的文件名
func (f *Form) FileNames() []string {
	names := make([]string, 0, len(f.files))
	for _, p := range f.files {
		names = append(names, p.file.Name)
	}
	return names
}

// Encode 编码为请求体，返回 Content-Type（含 boundary）
func (f *Form) Encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, fd := range f.fields {
		if err := w.WriteField(fd.name, fd.value); err != nil {
			return nil, "", err
		}
	}

	for _, p := range f.files {
		if err := writeFile(w, p); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func writeFile(w *multipart.Writer, p filePart) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, escapeQuotes(p.field), escapeQuotes(p.file.Name)))
	h.Set("Content-Type", p.file.ContentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}

	src, err := p.file.Open()
	if err != nil {
		return fmt.Errorf("open attachment %s: %w", p.file.Name, err)
	}
	defer src.Close()

	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("read attachment %s: %w", p.file.Name, err)
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
