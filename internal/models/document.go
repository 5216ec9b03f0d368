package models

// ProcessStage 文档预处理阶段
type ProcessStage string

const (
	// StageLoading 格式归一化（加载）阶段
	StageLoading ProcessStage = "loading"
	// StageChunking 分块阶段
	StageChunking ProcessStage = "chunking"
	// StageImages 页面图片提取阶段
	StageImages ProcessStage = "images"
	// StageComposing 元数据组装阶段
	StageComposing ProcessStage = "composing"
)

// Page 归一化后的单页文本
// Number 为加载器给出的原始页码：图片格式从1开始，其余格式从0开始
type Page struct {
	Number int    // 原始页码
	Text   string // 页面文本
}

// Chunk 文本分块
type Chunk struct {
	Text  string // 分块文本
	Page  int    // 修正后的页码（从1开始）
	Index int    // 在整个文档中的序号（从0开始）
}

// 内容类型
const (
	ContentTypeText  = "text"
	ContentTypeImage = "image"
)

// Rect 归一化矩形，坐标取值范围 [0,1]，原点在页面左上角
type Rect struct {
	L float64 `json:"l"`
	T float64 `json:"t"`
	R float64 `json:"r"`
	B float64 `json:"b"`
}

// Union 返回同时覆盖两个矩形的最小矩形
func (r Rect) Union(o Rect) Rect {
	return Rect{
		L: minFloat(r.L, o.L),
		T: minFloat(r.T, o.T),
		R: maxFloat(r.R, o.R),
		B: maxFloat(r.B, o.B),
	}
}

// BoundingBox 分块在页面上的定位框
type BoundingBox struct {
	Page int    `json:"page"`
	Type string `json:"type"`
	BBox Rect   `json:"bbox"`
}

// PageImage 页面内嵌图片的引用
type PageImage struct {
	Name string `json:"name"` // 上传后的文件名
	Type string `json:"type"` // 固定为 image
	Page int    `json:"page"` // 所在页码（从1开始）
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
