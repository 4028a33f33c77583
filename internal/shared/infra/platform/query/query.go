package query

// ---------- Paginación / ordenamiento ----------

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// OffsetPagination para paginación clásica
type OffsetPagination struct {
	Limit  int
	Offset int
}

// Normalize aplica el límite por defecto y recorta valores fuera de rango.
func (p OffsetPagination) Normalize() OffsetPagination {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Pagination admite OffsetPagination o nil (sin paginar).
type Pagination interface{}

// Sort indica campo y dirección.
type Sort struct {
	Field string // ej. "created_at", "due_date", "title"
	Desc  bool
}
