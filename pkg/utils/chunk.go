package utils

// Chunk разбивает последовательность на пакеты не длиннее size, сохраняя порядок.
// Последний пакет может быть короче. При size <= 0 возвращается один пакет.
// Пакеты разделяют память с исходным срезом.
func Chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 || size >= len(items) {
		return [][]T{items}
	}

	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end:end])
	}
	return chunks
}
