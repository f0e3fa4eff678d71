package render

import (
	"fmt"

	"github.com/nao1215/showcase/internal/model"
)

// Resolve returns the record a card activation refers to.
func Resolve(c *model.Collection, id int) (model.Record, error) {
	r, ok := c.Get(id)
	if !ok {
		return model.Record{}, fmt.Errorf("%w: id %d", model.ErrRecordNotFound, id)
	}
	return r, nil
}

// Badges returns the labels shown next to a record title: the category
// followed by the tags.
func Badges(r model.Record) []string {
	badges := make([]string, 0, len(r.Tags)+1)
	badges = append(badges, r.Category)
	badges = append(badges, r.Tags...)
	return badges
}
