package backend

import "context"

// TableClient is the REST surface a Table needs. *Client implements it.
type TableClient interface {
	Select(ctx context.Context, token, table string, f *Filter, out any) error
	SelectSingle(ctx context.Context, token, table string, f *Filter, out any) error
	Insert(ctx context.Context, token, table string, rows any, out any) error
	Update(ctx context.Context, token, table string, f *Filter, patch any, out any) error
	Delete(ctx context.Context, token, table string, f *Filter) error
}

// Table is typed CRUD over one REST table whose rows are keyed by "id".
type Table[T any] struct {
	client TableClient
	name   string
}

func NewTable[T any](client TableClient, name string) Table[T] {
	return Table[T]{client: client, name: name}
}

func (t Table[T]) Name() string { return t.name }

// List returns the rows matching f. No rows is an empty, non-nil slice.
func (t Table[T]) List(ctx context.Context, token string, f *Filter) ([]T, error) {
	rows := []T{}
	if err := t.client.Select(ctx, token, t.name, f, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Get returns (nil, nil) when no row has the id. A missing table is still
// an error.
func (t Table[T]) Get(ctx context.Context, token string, rowID any) (*T, error) {
	var row T
	err := t.client.SelectSingle(ctx, token, t.name, NewFilter().Eq("id", rowID), &row)
	if err != nil {
		if IsNotFound(err) && !IsMissingRelation(err) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// Insert creates one row and returns it as stored.
func (t Table[T]) Insert(ctx context.Context, token string, row any) (*T, error) {
	var created []T
	if err := t.client.Insert(ctx, token, t.name, row, &created); err != nil {
		return nil, err
	}
	if len(created) == 0 {
		return nil, &Error{Category: CategoryBadData, Op: "rest.insert", Message: "insert returned no rows"}
	}
	return &created[0], nil
}

// Update patches the row with the id. It returns (nil, nil) when no row
// matched, which is also what row-level policies report for rows the
// caller cannot see.
func (t Table[T]) Update(ctx context.Context, token string, rowID any, patch any) (*T, error) {
	var updated []T
	if err := t.client.Update(ctx, token, t.name, NewFilter().Eq("id", rowID), patch, &updated); err != nil {
		return nil, err
	}
	if len(updated) == 0 {
		return nil, nil
	}
	return &updated[0], nil
}

func (t Table[T]) Delete(ctx context.Context, token string, rowID any) error {
	return t.client.Delete(ctx, token, t.name, NewFilter().Eq("id", rowID))
}
