package models

import (
	"encoding/json"
	"fmt"
)

// VectorRecord 每个分块对应的扁平化索引记录
// chunk_bboxes 与 media_files 以 JSON 字符串保存，便于写入扁平结构的存储
type VectorRecord struct {
	Text         string `json:"text"`
	NChar        int    `json:"n_char"`
	NWord        int    `json:"n_word"`
	NLine        int    `json:"n_line"`
	IPage        int    `json:"i_page"`
	EPage        int    `json:"e_page"`
	IChunkOnPage int    `json:"i_chunk_on_page"`
	NChunkOfPage int    `json:"n_chunk_of_page"`
	IChunkOnDoc  int    `json:"i_chunk_on_doc"`
	NChunkOfDoc  int    `json:"n_chunk_of_doc"`
	NPage        int    `json:"n_page"`
	RegDate      string `json:"reg_date"`
	ChunkBBoxes  string `json:"chunk_bboxes"`
	MediaFiles   string `json:"media_files"`
}

// EncodeBBoxes 序列化定位框列表，nil 编码为 "[]"
func EncodeBBoxes(boxes []BoundingBox) (string, error) {
	if boxes == nil {
		boxes = []BoundingBox{}
	}
	data, err := json.Marshal(boxes)
	if err != nil {
		return "", fmt.Errorf("failed to encode bboxes: %w", err)
	}
	return string(data), nil
}

// EncodeMediaFiles 序列化页面图片列表，nil 编码为 "[]"
func EncodeMediaFiles(images []PageImage) (string, error) {
	if images == nil {
		images = []PageImage{}
	}
	data, err := json.Marshal(images)
	if err != nil {
		return "", fmt.Errorf("failed to encode media files: %w", err)
	}
	return string(data), nil
}

// DecodeBBoxes 解析 chunk_bboxes 字段
func (v *VectorRecord) DecodeBBoxes() ([]BoundingBox, error) {
	var boxes []BoundingBox
	if v.ChunkBBoxes == "" {
		return boxes, nil
	}
	if err := json.Unmarshal([]byte(v.ChunkBBoxes), &boxes); err != nil {
		return nil, fmt.Errorf("failed to decode bboxes: %w", err)
	}
	return boxes, nil
}

// DecodeMediaFiles 解析 media_files 字段
func (v *VectorRecord) DecodeMediaFiles() ([]PageImage, error) {
	var images []PageImage
	if v.MediaFiles == "" {
		return images, nil
	}
	if err := json.Unmarshal([]byte(v.MediaFiles), &images); err != nil {
		return nil, fmt.Errorf("failed to decode media files: %w", err)
	}
	return images, nil
}

// ToMap 转换为扁平的键值结构
func (v *VectorRecord) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"text":            v.Text,
		"n_char":          v.NChar,
		"n_word":          v.NWord,
		"n_line":          v.NLine,
		"i_page":          v.IPage,
		"e_page":          v.EPage,
		"i_chunk_on_page": v.IChunkOnPage,
		"n_chunk_of_page": v.NChunkOfPage,
		"i_chunk_on_doc":  v.IChunkOnDoc,
		"n_chunk_of_doc":  v.NChunkOfDoc,
		"n_page":          v.NPage,
		"reg_date":        v.RegDate,
		"chunk_bboxes":    v.ChunkBBoxes,
		"media_files":     v.MediaFiles,
	}
}
