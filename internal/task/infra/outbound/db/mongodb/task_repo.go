package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	sharedDomain "github.com/davicafu/hexatask/internal/shared/domain"
	sharedMongo "github.com/davicafu/hexatask/internal/shared/infra/platform/db/mongodb"
	sharedQuery "github.com/davicafu/hexatask/internal/shared/infra/platform/query"
	taskDomain "github.com/davicafu/hexatask/internal/task/domain"
)

const tasksCollection = "tasks"

// fieldKeys traduce campos del criterio a claves del documento.
var fieldKeys = map[string]string{
	taskDomain.FieldID:          "_id",
	taskDomain.FieldTitle:       "title",
	taskDomain.FieldDescription: "description",
	taskDomain.FieldPriority:    "priority",
	taskDomain.FieldStatus:      "status",
	taskDomain.FieldCreatedAt:   "createdAt",
	taskDomain.FieldUpdatedAt:   "updatedAt",
	taskDomain.FieldDueDate:     "dueDate",
	taskDomain.FieldAssigneeID:  "assigneeId",
}

// TaskRepoMongoDB implementa la interfaz TaskRepository para MongoDB.
// Las transacciones requieren un replica set.
type TaskRepoMongoDB struct {
	client     *mongo.Client
	tasksColl  *mongo.Collection
	outboxColl *mongo.Collection
}

func NewTaskRepoMongoDB(ctx context.Context, client *mongo.Client, dbName string) (*TaskRepoMongoDB, error) {
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("could not ping mongoDB: %w", err)
	}

	db := client.Database(dbName)
	return &TaskRepoMongoDB{
		client:     client,
		tasksColl:  db.Collection(tasksCollection),
		outboxColl: db.Collection(sharedMongo.OutboxCollection),
	}, nil
}

// EnsureIndexes crea los índices de consulta y los del outbox.
func (r *TaskRepoMongoDB) EnsureIndexes(ctx context.Context) error {
	_, err := r.tasksColl.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "assigneeId", Value: 1}}},
		{Keys: bson.D{{Key: "dueDate", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create task indexes: %w", err)
	}
	return sharedMongo.EnsureOutboxIndexes(ctx, r.tasksColl.Database())
}

// --- Documento BSON ---
// Se define aquí para no contaminar el dominio con tags de BSON.

type mongoTask struct {
	ID          string     `bson:"_id"`
	Title       string     `bson:"title"`
	Description *string    `bson:"description"`
	Priority    string     `bson:"priority"`
	Status      string     `bson:"status"`
	CreatedAt   time.Time  `bson:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt"`
	DueDate     *time.Time `bson:"dueDate"`
	AssigneeID  *string    `bson:"assigneeId"`
	Version     int        `bson:"version"`
}

// --- CRUD Transaccional ---

func (r *TaskRepoMongoDB) Create(ctx context.Context, t *taskDomain.Task, evt sharedDomain.OutboxEvent) error {
	err := r.inTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		doc := toMongoTask(t)
		doc.Version = 1
		if _, err := r.tasksColl.InsertOne(sessCtx, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return taskDomain.ErrTaskAlreadyExists
			}
			return err
		}
		return sharedMongo.InsertOutbox(sessCtx, r.outboxColl, evt)
	})
	if err != nil {
		return err
	}
	t.Version = 1
	return nil
}

// Update escribe solo si la versión almacenada coincide con t.Version.
func (r *TaskRepoMongoDB) Update(ctx context.Context, t *taskDomain.Task, evt sharedDomain.OutboxEvent) error {
	err := r.inTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		doc := toMongoTask(t)
		doc.Version = t.Version + 1

		res, err := r.tasksColl.ReplaceOne(sessCtx, bson.M{"_id": doc.ID, "version": t.Version}, doc)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			n, err := r.tasksColl.CountDocuments(sessCtx, bson.M{"_id": doc.ID})
			if err != nil {
				return err
			}
			if n == 0 {
				return taskDomain.ErrTaskNotFound
			}
			return taskDomain.ErrTaskVersionConflict
		}
		return sharedMongo.InsertOutbox(sessCtx, r.outboxColl, evt)
	})
	if err != nil {
		return err
	}
	t.Version++
	return nil
}

func (r *TaskRepoMongoDB) DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	return r.inTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		res, err := r.tasksColl.DeleteOne(sessCtx, bson.M{"_id": id.String()})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return taskDomain.ErrTaskNotFound
		}
		return sharedMongo.InsertOutbox(sessCtx, r.outboxColl, evt)
	})
}

func (r *TaskRepoMongoDB) inTransaction(ctx context.Context, fn func(mongo.SessionContext) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}

// --- Lectura ---

func (r *TaskRepoMongoDB) GetByID(ctx context.Context, id uuid.UUID) (*taskDomain.Task, error) {
	var doc mongoTask
	err := r.tasksColl.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, taskDomain.ErrTaskNotFound
		}
		return nil, err
	}
	return fromMongoTask(&doc)
}

func (r *TaskRepoMongoDB) ListByCriteria(ctx context.Context, criteria sharedDomain.Criteria, pagination sharedQuery.Pagination, sort sharedQuery.Sort) ([]*taskDomain.Task, error) {
	filter, err := criteriaToMongoFilter(criteria)
	if err != nil {
		return nil, err
	}
	sortDoc, err := sortToMongo(sort)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(sortDoc)
	if p, ok := pagination.(sharedQuery.OffsetPagination); ok {
		opts.SetSkip(int64(p.Offset))
		opts.SetLimit(int64(p.Limit))
	}

	cursor, err := r.tasksColl.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	tasks := []*taskDomain.Task{}
	for cursor.Next(ctx) {
		var doc mongoTask
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		t, err := fromMongoTask(&doc)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, cursor.Err()
}

// --- Helpers de Mapeo y Conversión ---

func toMongoTask(t *taskDomain.Task) *mongoTask {
	doc := &mongoTask{
		ID:          t.ID.String(),
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		Status:      string(t.Status),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		DueDate:     t.DueDate,
		Version:     t.Version,
	}
	if t.AssigneeID != nil {
		s := t.AssigneeID.String()
		doc.AssigneeID = &s
	}
	return doc
}

func fromMongoTask(doc *mongoTask) (*taskDomain.Task, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid task id %q: %w", doc.ID, err)
	}
	t := &taskDomain.Task{
		ID:          id,
		Title:       doc.Title,
		Description: doc.Description,
		Priority:    taskDomain.TaskPriority(doc.Priority),
		Status:      taskDomain.TaskStatus(doc.Status),
		CreatedAt:   doc.CreatedAt.UTC(),
		UpdatedAt:   doc.UpdatedAt.UTC(),
		Version:     doc.Version,
	}
	if doc.DueDate != nil {
		d := doc.DueDate.UTC()
		t.DueDate = &d
	}
	if doc.AssigneeID != nil {
		assignee, err := uuid.Parse(*doc.AssigneeID)
		if err != nil {
			return nil, fmt.Errorf("invalid assignee id %q: %w", *doc.AssigneeID, err)
		}
		t.AssigneeID = &assignee
	}
	return t, nil
}

// criteriaToMongoFilter combina las condiciones con $and y los grupos con $or.
func criteriaToMongoFilter(criteria sharedDomain.Criteria) (bson.M, error) {
	if criteria == nil {
		return bson.M{}, nil
	}
	conds := criteria.ToConditions()
	if len(conds) == 0 {
		return bson.M{}, nil
	}

	clauses := make(bson.A, 0, len(conds))
	for _, c := range conds {
		clause, err := conditionToMongo(c)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, clause)
	}
	if len(clauses) == 1 {
		return clauses[0].(bson.M), nil
	}
	return bson.M{"$and": clauses}, nil
}

func conditionToMongo(c sharedDomain.Criterion) (bson.M, error) {
	if c.IsGroup() {
		alts := make(bson.A, 0, len(c.AnyOf))
		for _, alt := range c.AnyOf {
			clause, err := conditionToMongo(alt)
			if err != nil {
				return nil, err
			}
			alts = append(alts, clause)
		}
		return bson.M{"$or": alts}, nil
	}

	key, ok := fieldKeys[c.Field]
	if !ok {
		return nil, fmt.Errorf("unknown criteria field %q", c.Field)
	}
	value := toMongoValue(c.Value)

	switch c.Op {
	case sharedDomain.OpEq:
		return bson.M{key: bson.M{"$eq": value}}, nil
	case sharedDomain.OpNe:
		return bson.M{key: bson.M{"$ne": value}}, nil
	case sharedDomain.OpGt:
		return bson.M{key: bson.M{"$gt": value}}, nil
	case sharedDomain.OpGte:
		return bson.M{key: bson.M{"$gte": value}}, nil
	case sharedDomain.OpLt:
		return bson.M{key: bson.M{"$lt": value}}, nil
	case sharedDomain.OpLte:
		return bson.M{key: bson.M{"$lte": value}}, nil
	case sharedDomain.OpLike, sharedDomain.OpILike:
		pattern, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("LIKE on %q needs a string pattern", c.Field)
		}
		regex := bson.M{"$regex": likeToRegex(pattern)}
		if c.Op == sharedDomain.OpILike {
			regex["$options"] = "i"
		}
		return bson.M{key: regex}, nil
	default:
		return nil, fmt.Errorf("unsupported criteria operator %q", c.Op)
	}
}

// likeToRegex traduce un patrón LIKE (% y _) a una expresión anclada.
// El resto del texto, y lo que sigue al carácter de escape, se toma literal.
func likeToRegex(pattern string) string {
	var b strings.Builder
	b.WriteString("^")
	escaped := false
	for _, r := range pattern {
		switch {
		case escaped:
			b.WriteString(regexp.QuoteMeta(string(r)))
			escaped = false
		case string(r) == sharedDomain.LikeEscape:
			escaped = true
		case r == '%':
			b.WriteString(".*")
		case r == '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return b.String()
}

func toMongoValue(v interface{}) interface{} {
	switch x := v.(type) {
	case taskDomain.TaskStatus:
		return string(x)
	case taskDomain.TaskPriority:
		return string(x)
	case uuid.UUID:
		return x.String()
	default:
		return v
	}
}

// sortToMongo desempata por _id para que la paginación sea estable.
func sortToMongo(sort sharedQuery.Sort) (bson.D, error) {
	key := "createdAt"
	if sort.Field != "" {
		k, ok := fieldKeys[sort.Field]
		if !ok {
			return nil, fmt.Errorf("unknown sort field %q", sort.Field)
		}
		key = k
	}
	dir := 1
	if sort.Desc {
		dir = -1
	}
	return bson.D{{Key: key, Value: dir}, {Key: "_id", Value: 1}}, nil
}

var _ taskDomain.TaskRepository = (*TaskRepoMongoDB)(nil)
