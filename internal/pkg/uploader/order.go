package uploader

import "strconv"

// NewPlaceholderPrefix 编辑帖子时新附件在 order 中的占位前缀
const NewPlaceholderPrefix = "new:"

// Slot 编辑后附件列表中的一个位置：已有附件 ID 或新文件
type Slot struct {
	Existing string
	File     *File
}

// Keep 保留已有附件
func Keep(id string) Slot {
	return Slot{Existing: id}
}

// Add 在该位置插入新文件
func Add(file *File) Slot {
	return Slot{File: file}
}

// BuildOrder 生成 order 列表与新文件列表
//
// 已有附件写入其 ID，新文件写入 new:<i>，i 为新文件在 files 中的下标。
func BuildOrder(slots []Slot) (order []string, files []*File) {
	order = make([]string, 0, len(slots))
	for _, s := range slots {
		if s.File != nil {
			order = append(order, NewPlaceholderPrefix+strconv.Itoa(len(files)))
			files = append(files, s.File)
			continue
		}
		if s.Existing != "" {
			order = append(order, s.Existing)
		}
	}
	return order, files
}
