package util

// Batch 按 size 切分切片，每一批都是独立拷贝；size<=0 时整体作为一批。
func Batch[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 || size > len(items) {
		size = len(items)
	}
	result := make([][]T, 0, (len(items)+size-1)/size)
	for len(items) > 0 {
		n := min(size, len(items))
		result = append(result, append([]T(nil), items[:n]...))
		items = items[n:]
	}
	return result
}
