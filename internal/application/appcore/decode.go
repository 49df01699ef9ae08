package appcore

import (
	"context"
	"log/slog"
)

// DecodeAll decodes stored documents, skipping and logging the ones that do not
// decode so one malformed document does not fail a whole listing.
func DecodeAll[T any](
	ctx context.Context,
	logger *slog.Logger,
	entity string,
	docs []Document,
	decode func(Document) (T, error),
) []T {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		item, err := decode(doc)
		if err != nil {
			logger.WarnContext(ctx, "skipping malformed document",
				slog.String("entity", entity),
				slog.Any("id", doc[IDField]),
				slog.String("error", err.Error()))
			continue
		}
		out = append(out, item)
	}
	return out
}
