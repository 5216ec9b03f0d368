package bbox

import "github.com/fyerfyer/doc-preprocessor/internal/models"

// overlaps 判断两个矩形在容差范围内是否相交或相邻
func overlaps(a, b models.Rect, xTol, yTol float64) bool {
	return a.L <= b.R+xTol && b.L <= a.R+xTol &&
		a.T <= b.B+yTol && b.T <= a.B+yTol
}

// MergeOverlapping 反复合并同页同类型且在容差内相交的定位框，直到不再变化
// 结果顺序与每组中最早出现的定位框一致
func MergeOverlapping(boxes []models.BoundingBox, xTol, yTol float64) []models.BoundingBox {
	merged := make([]models.BoundingBox, len(boxes))
	copy(merged, boxes)

	for changed := true; changed; {
		changed = false
		for i := 0; i < len(merged) && !changed; i++ {
			for j := i + 1; j < len(merged); j++ {
				a, b := merged[i], merged[j]
				if a.Page != b.Page || a.Type != b.Type || !overlaps(a.BBox, b.BBox, xTol, yTol) {
					continue
				}
				merged[i].BBox = a.BBox.Union(b.BBox)
				merged = append(merged[:j], merged[j+1:]...)
				changed = true
				break
			}
		}
	}
	return merged
}
