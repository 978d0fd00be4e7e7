package utils

import (
	"context"
	"fmt"
)

// DefaultMaxPages ограничение числа страниц, если не задано иное
const DefaultMaxPages = 10000

// Page представляет одну страницу курсорной выдачи
type Page[T any] struct {
	Items []T    // Элементы текущей страницы
	Next  string // Курсор следующей страницы, пустой - данных больше нет
}

// PageFetcher загружает страницу по курсору. Первый вызов получает пустой курсор.
type PageFetcher[T any] func(ctx context.Context, cursor string) (Page[T], error)

// PageOptions настройки обхода страниц
type PageOptions struct {
	MaxPages int // Максимальное число страниц (защита от бесконечного цикла)
	// OnPage вызывается после каждой загруженной страницы (опционально)
	OnPage func(page int, items int, next string)
}

// CollectAll последовательно обходит все страницы, начиная с пустого курсора,
// и возвращает конкатенацию элементов в порядке получения.
//
// Обход завершается, когда сервер вернул пустую страницу или пустой курсор.
// Повтор уже использованного курсора считается ошибкой протокола (ErrCursorStalled),
// превышение MaxPages - ErrPageLimitExceeded.
func CollectAll[T any](ctx context.Context, fetch PageFetcher[T], opts PageOptions) ([]T, error) {
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	var all []T
	cursor := ""
	seen := make(map[string]struct{})

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return all, err
		}
		if page > maxPages {
			return all, fmt.Errorf("%w: more than %d pages", ErrPageLimitExceeded, maxPages)
		}

		result, err := fetch(ctx, cursor)
		if err != nil {
			return all, fmt.Errorf("page %d: %w", page, err)
		}

		if opts.OnPage != nil {
			opts.OnPage(page, len(result.Items), result.Next)
		}

		if len(result.Items) == 0 {
			return all, nil
		}
		all = append(all, result.Items...)

		if result.Next == "" {
			return all, nil
		}
		if _, dup := seen[result.Next]; dup {
			return all, fmt.Errorf("%w: cursor %q repeated on page %d", ErrCursorStalled, result.Next, page)
		}
		seen[result.Next] = struct{}{}
		cursor = result.Next
	}
}
