package sdk

import (
	"net/url"
	"strconv"
)

func (o ListOptions) values() url.Values {
	q := url.Values{}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(o.PageSize))
	}
	return q
}

func (f FieldFilter) values() url.Values {
	q := f.ListOptions.values()
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.IsSystemField != nil {
		q.Set("is_system_field", strconv.FormatBool(*f.IsSystemField))
	}
	return q
}

func (f ObjectFilter) values() url.Values {
	q := f.ListOptions.values()
	if f.Category != "" {
		q.Set("category", string(f.Category))
	}
	return q
}

func (f RecordFilter) values() url.Values {
	q := f.ListOptions.values()
	if f.ObjectID != "" {
		q.Set("object_id", f.ObjectID)
	}
	return q
}

func (f RelationshipFilter) values() url.Values {
	q := f.ListOptions.values()
	if f.ObjectID != "" {
		q.Set("object_id", f.ObjectID)
	}
	return q
}

func itemPath(base, id string) string {
	return base + "/" + url.PathEscape(id)
}
