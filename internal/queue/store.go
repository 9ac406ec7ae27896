package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"ytproc/internal/config"
	"ytproc/internal/logging"
	"ytproc/internal/services"
)

const itemsCollection = "queue_items"

// Store provides MongoDB-backed persistence for queue items.
type Store struct {
	client *mongo.Client
	items  *mongo.Collection
	uri    string
	dbName string
	logger *slog.Logger
}

// itemDoc is the BSON shape of a queue item.
type itemDoc struct {
	ID                     primitive.ObjectID `bson:"_id,omitempty"`
	VideoURL               string             `bson:"video_url"`
	VideoID                string             `bson:"video_id,omitempty"`
	Title                  string             `bson:"title,omitempty"`
	Status                 string             `bson:"status"`
	Priority               int                `bson:"priority"`
	Quality                string             `bson:"quality,omitempty"`
	TargetLang             string             `bson:"target_lang,omitempty"`
	VideoFile              string             `bson:"video_file,omitempty"`
	ThumbnailFile          string             `bson:"thumbnail_file,omitempty"`
	SubtitleFile           string             `bson:"subtitle_file,omitempty"`
	TranslatedSubtitleFile string             `bson:"translated_subtitle_file,omitempty"`
	CommentsFile           string             `bson:"comments_file,omitempty"`
	FinalFile              string             `bson:"final_file,omitempty"`
	PublishedURLs          map[string]string  `bson:"published_urls,omitempty"`
	ErrorMessage           string             `bson:"error_message,omitempty"`
	ProgressStage          string             `bson:"progress_stage,omitempty"`
	ProgressPercent        float64            `bson:"progress_percent"`
	ProgressMessage        string             `bson:"progress_message,omitempty"`
	MetadataJSON           string             `bson:"metadata_json,omitempty"`
	CreatedAt              time.Time          `bson:"created_at"`
	UpdatedAt              time.Time          `bson:"updated_at"`
	LastHeartbeat          *time.Time         `bson:"last_heartbeat,omitempty"`
}

func docFromItem(item *Item) (itemDoc, error) {
	doc := itemDoc{
		VideoURL:               item.VideoURL,
		VideoID:                item.VideoID,
		Title:                  item.Title,
		Status:                 string(item.Status),
		Priority:               item.Priority,
		Quality:                item.Quality,
		TargetLang:             item.TargetLang,
		VideoFile:              item.VideoFile,
		ThumbnailFile:          item.ThumbnailFile,
		SubtitleFile:           item.SubtitleFile,
		TranslatedSubtitleFile: item.TranslatedSubtitleFile,
		CommentsFile:           item.CommentsFile,
		FinalFile:              item.FinalFile,
		PublishedURLs:          item.PublishedURLs,
		ErrorMessage:           item.ErrorMessage,
		ProgressStage:          item.ProgressStage,
		ProgressPercent:        item.ProgressPercent,
		ProgressMessage:        item.ProgressMessage,
		MetadataJSON:           item.MetadataJSON,
		CreatedAt:              item.CreatedAt,
		UpdatedAt:              item.UpdatedAt,
		LastHeartbeat:          item.LastHeartbeat,
	}
	if item.ID != "" {
		oid, err := primitive.ObjectIDFromHex(item.ID)
		if err != nil {
			return itemDoc{}, services.Wrap(services.ErrValidation, "queue", "parse id", fmt.Sprintf("invalid item id %q", item.ID), err)
		}
		doc.ID = oid
	}
	return doc, nil
}

func (d itemDoc) toItem() *Item {
	return &Item{
		ID:                     d.ID.Hex(),
		VideoURL:               d.VideoURL,
		VideoID:                d.VideoID,
		Title:                  d.Title,
		Status:                 Status(d.Status),
		Priority:               d.Priority,
		Quality:                d.Quality,
		TargetLang:             d.TargetLang,
		VideoFile:              d.VideoFile,
		ThumbnailFile:          d.ThumbnailFile,
		SubtitleFile:           d.SubtitleFile,
		TranslatedSubtitleFile: d.TranslatedSubtitleFile,
		CommentsFile:           d.CommentsFile,
		FinalFile:              d.FinalFile,
		PublishedURLs:          d.PublishedURLs,
		ErrorMessage:           d.ErrorMessage,
		ProgressStage:          d.ProgressStage,
		ProgressPercent:        d.ProgressPercent,
		ProgressMessage:        d.ProgressMessage,
		MetadataJSON:           d.MetadataJSON,
		CreatedAt:              d.CreatedAt,
		UpdatedAt:              d.UpdatedAt,
		LastHeartbeat:          d.LastHeartbeat,
	}
}

// Open connects to MongoDB, verifies the connection, and ensures indexes.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "queue", "open", "configuration is required", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	opts := options.Client().
		ApplyURI(cfg.Database.URI).
		SetServerSelectionTimeout(time.Duration(cfg.Database.ServerSelectionTimeoutMS) * time.Millisecond).
		SetConnectTimeout(time.Duration(cfg.Database.ConnectTimeoutMS) * time.Millisecond).
		SetSocketTimeout(time.Duration(cfg.Database.SocketTimeoutMS) * time.Millisecond)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "queue", "connect", "connect to MongoDB", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, services.Wrap(services.ErrTransient, "queue", "ping", fmt.Sprintf("MongoDB unreachable at %s", cfg.Database.URI), err)
	}

	store := &Store{
		client: client,
		items:  client.Database(cfg.Database.Name).Collection(itemsCollection),
		uri:    cfg.Database.URI,
		dbName: cfg.Database.Name,
		logger: logger,
	}
	if err := store.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return store, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "priority", Value: -1},
				{Key: "created_at", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "video_id", Value: 1}},
		},
	}
	if _, err := s.items.Indexes().CreateMany(ctx, indexes); err != nil {
		return services.Wrap(services.ErrTransient, "queue", "ensure indexes", "create queue indexes", err)
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil {
		return services.Wrap(services.ErrTransient, "queue", "close", "disconnect from MongoDB", err)
	}
	return nil
}

// NewVideo inserts a pending item for the given URL and returns it with its
// assigned ID.
func (s *Store) NewVideo(ctx context.Context, videoURL, quality, targetLang string, priority int) (*Item, error) {
	now := time.Now().UTC()
	item := &Item{
		VideoURL:   videoURL,
		Status:     StatusPending,
		Priority:   priority,
		Quality:    quality,
		TargetLang: targetLang,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	doc, err := docFromItem(item)
	if err != nil {
		return nil, err
	}
	result, err := s.items.InsertOne(ctx, doc)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "queue", "insert", "insert queue item", err)
	}
	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, services.Wrap(services.ErrTransient, "queue", "insert", "unexpected inserted id type", nil)
	}
	item.ID = oid.Hex()
	s.logger.Info("queue item created",
		logging.String(logging.FieldItemID, item.ID),
		logging.String("video_url", videoURL),
		logging.Int("priority", priority))
	return item, nil
}

// GetByID fetches an item by its hex ID. Returns (nil, nil) when no item
// matches.
func (s *Store) GetByID(ctx context.Context, id string) (*Item, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "queue", "get", fmt.Sprintf("invalid item id %q", id), err)
	}
	var doc itemDoc
	err = s.items.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "queue", "get", "fetch queue item", err)
	}
	return doc.toItem(), nil
}

// Update persists the full state of an item.
func (s *Store) Update(ctx context.Context, item *Item) error {
	if item.ID == "" {
		return services.Wrap(services.ErrValidation, "queue", "update", "item has no id", nil)
	}
	item.UpdatedAt = time.Now().UTC()
	doc, err := docFromItem(item)
	if err != nil {
		return err
	}
	result, err := s.items.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		return services.Wrap(services.ErrTransient, "queue", "update", "update queue item", err)
	}
	if result.MatchedCount == 0 {
		return services.Wrap(services.ErrNotFound, "queue", "update", fmt.Sprintf("item %s not found", item.ID), nil)
	}
	return nil
}

// List returns items filtered by the given statuses, or all items when no
// statuses are provided. Results are ordered by priority then age.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Item, error) {
	filter := bson.M{}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statusStrings(statuses)}
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "priority", Value: -1},
		{Key: "created_at", Value: 1},
	})
	cursor, err := s.items.Find(ctx, filter, opts)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "queue", "list", "list queue items", err)
	}
	defer cursor.Close(ctx)

	var items []*Item
	for cursor.Next(ctx) {
		var doc itemDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, services.Wrap(services.ErrTransient, "queue", "list", "decode queue item", err)
		}
		items = append(items, doc.toItem())
	}
	if err := cursor.Err(); err != nil {
		return nil, services.Wrap(services.ErrTransient, "queue", "list", "iterate queue items", err)
	}
	return items, nil
}

// NextForStatuses returns the highest-priority oldest item whose status is in
// the given set, or nil when none match.
func (s *Store) NextForStatuses(ctx context.Context, statuses ...Status) (*Item, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	opts := options.FindOne().SetSort(bson.D{
		{Key: "priority", Value: -1},
		{Key: "created_at", Value: 1},
	})
	var doc itemDoc
	err := s.items.FindOne(ctx, bson.M{"status": bson.M{"$in": statusStrings(statuses)}}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "queue", "next", "fetch next queue item", err)
	}
	return doc.toItem(), nil
}

// ItemsByStatus returns counts of items grouped by status.
func (s *Store) ItemsByStatus(ctx context.Context) (map[Status]int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := s.items.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "queue", "stats", "aggregate status counts", err)
	}
	defer cursor.Close(ctx)

	counts := make(map[Status]int)
	for cursor.Next(ctx) {
		var row struct {
			Status string `bson:"_id"`
			Count  int    `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, services.Wrap(services.ErrTransient, "queue", "stats", "decode status count", err)
		}
		counts[Status(row.Status)] = row.Count
	}
	if err := cursor.Err(); err != nil {
		return nil, services.Wrap(services.ErrTransient, "queue", "stats", "iterate status counts", err)
	}
	return counts, nil
}

// Stats summarizes queue counts for health reporting.
func (s *Store) Stats(ctx context.Context) (HealthSummary, error) {
	counts, err := s.ItemsByStatus(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	var summary HealthSummary
	for status, count := range counts {
		summary.Total += count
		switch {
		case status == StatusPending:
			summary.Pending += count
		case status == StatusFailed:
			summary.Failed += count
		case status == StatusCompleted:
			summary.Completed += count
		case status == StatusPaused:
			summary.Paused += count
		case IsProcessingStatus(status):
			summary.Processing += count
		}
	}
	return summary, nil
}

// UpdateHeartbeat stamps the item's heartbeat with the current time.
func (s *Store) UpdateHeartbeat(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return services.Wrap(services.ErrValidation, "queue", "heartbeat", fmt.Sprintf("invalid item id %q", id), err)
	}
	now := time.Now().UTC()
	_, err = s.items.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"last_heartbeat": now,
		"updated_at":     now,
	}})
	if err != nil {
		return services.Wrap(services.ErrTransient, "queue", "heartbeat", "update heartbeat", err)
	}
	return nil
}

// ReclaimStaleProcessing rolls back processing items whose heartbeat is older
// than cutoff (or missing) using the provided status transitions. Returns the
// number of items reclaimed.
func (s *Store) ReclaimStaleProcessing(ctx context.Context, cutoff time.Time, transitions map[Status]Status) (int, error) {
	total := 0
	for from, to := range transitions {
		filter := bson.M{
			"status": string(from),
			"$or": []bson.M{
				{"last_heartbeat": bson.M{"$lt": cutoff}},
				{"last_heartbeat": nil},
				{"last_heartbeat": bson.M{"$exists": false}},
			},
		}
		update := bson.M{
			"$set": bson.M{
				"status":     string(to),
				"updated_at": time.Now().UTC(),
			},
			"$unset": bson.M{"last_heartbeat": ""},
		}
		result, err := s.items.UpdateMany(ctx, filter, update)
		if err != nil {
			return total, services.Wrap(services.ErrTransient, "queue", "reclaim", fmt.Sprintf("reclaim items in %s", from), err)
		}
		if result.ModifiedCount > 0 {
			total += int(result.ModifiedCount)
			s.logger.Info("reclaimed stale processing items",
				logging.String("from_status", string(from)),
				logging.String("to_status", string(to)),
				logging.Int64("count", result.ModifiedCount))
		}
	}
	return total, nil
}

// ResetStuckProcessing rolls every processing item back to its stage start
// status regardless of heartbeat age, using the supplied transitions. Callers
// with a configured workflow must pass its effective rollback map so items land
// in a status some lane actually polls; DefaultRollbacks is the fallback when
// transitions is empty.
func (s *Store) ResetStuckProcessing(ctx context.Context, transitions map[Status]Status) (int, error) {
	if len(transitions) == 0 {
		transitions = DefaultRollbacks()
	}
	return s.ReclaimStaleProcessing(ctx, time.Now().UTC().Add(time.Hour), transitions)
}

// RetryFailed resets failed items to pending. When ids is empty all failed
// items are retried.
func (s *Store) RetryFailed(ctx context.Context, ids ...string) (int, error) {
	filter := bson.M{"status": string(StatusFailed)}
	if len(ids) > 0 {
		oids, err := objectIDs(ids)
		if err != nil {
			return 0, err
		}
		filter["_id"] = bson.M{"$in": oids}
	}
	update := bson.M{
		"$set": bson.M{
			"status":           string(StatusPending),
			"error_message":    "",
			"progress_stage":   "",
			"progress_percent": 0.0,
			"progress_message": "",
			"updated_at":       time.Now().UTC(),
		},
		"$unset": bson.M{"last_heartbeat": ""},
	}
	result, err := s.items.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, services.Wrap(services.ErrTransient, "queue", "retry", "retry failed items", err)
	}
	return int(result.ModifiedCount), nil
}

// Pause moves pending items to paused so the workflow skips them.
func (s *Store) Pause(ctx context.Context, ids ...string) (int, error) {
	return s.transition(ctx, StatusPending, StatusPaused, ids)
}

// Resume moves paused items back to pending.
func (s *Store) Resume(ctx context.Context, ids ...string) (int, error) {
	return s.transition(ctx, StatusPaused, StatusPending, ids)
}

func (s *Store) transition(ctx context.Context, from, to Status, ids []string) (int, error) {
	filter := bson.M{"status": string(from)}
	if len(ids) > 0 {
		oids, err := objectIDs(ids)
		if err != nil {
			return 0, err
		}
		filter["_id"] = bson.M{"$in": oids}
	}
	update := bson.M{"$set": bson.M{
		"status":     string(to),
		"updated_at": time.Now().UTC(),
	}}
	result, err := s.items.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, services.Wrap(services.ErrTransient, "queue", "transition", fmt.Sprintf("move items from %s to %s", from, to), err)
	}
	return int(result.ModifiedCount), nil
}

// Remove deletes items by ID. Processing items are skipped unless force is
// set.
func (s *Store) Remove(ctx context.Context, force bool, ids ...string) (int, error) {
	oids, err := objectIDs(ids)
	if err != nil {
		return 0, err
	}
	filter := bson.M{"_id": bson.M{"$in": oids}}
	if !force {
		filter["status"] = bson.M{"$nin": statusStrings(ProcessingStatuses())}
	}
	result, err := s.items.DeleteMany(ctx, filter)
	if err != nil {
		return 0, services.Wrap(services.ErrTransient, "queue", "remove", "remove queue items", err)
	}
	return int(result.DeletedCount), nil
}

// Clear deletes every item in the queue.
func (s *Store) Clear(ctx context.Context) (int, error) {
	return s.clearWhere(ctx, bson.M{})
}

// ClearCompleted deletes completed items.
func (s *Store) ClearCompleted(ctx context.Context) (int, error) {
	return s.clearWhere(ctx, bson.M{"status": string(StatusCompleted)})
}

// ClearFailed deletes failed items.
func (s *Store) ClearFailed(ctx context.Context) (int, error) {
	return s.clearWhere(ctx, bson.M{"status": string(StatusFailed)})
}

func (s *Store) clearWhere(ctx context.Context, filter bson.M) (int, error) {
	result, err := s.items.DeleteMany(ctx, filter)
	if err != nil {
		return 0, services.Wrap(services.ErrTransient, "queue", "clear", "clear queue items", err)
	}
	return int(result.DeletedCount), nil
}

// FailProcessing marks in-flight items as failed with the given reason. Used
// during shutdown when resumable rollback is not wanted.
func (s *Store) FailProcessing(ctx context.Context, reason string) (int, error) {
	update := bson.M{
		"$set": bson.M{
			"status":        string(StatusFailed),
			"error_message": reason,
			"updated_at":    time.Now().UTC(),
		},
		"$unset": bson.M{"last_heartbeat": ""},
	}
	result, err := s.items.UpdateMany(ctx, bson.M{"status": bson.M{"$in": statusStrings(ProcessingStatuses())}}, update)
	if err != nil {
		return 0, services.Wrap(services.ErrTransient, "queue", "fail processing", "fail in-flight items", err)
	}
	return int(result.ModifiedCount), nil
}

// Health reports connectivity and item count diagnostics.
func (s *Store) Health(ctx context.Context) DatabaseHealth {
	health := DatabaseHealth{URI: s.uri, Database: s.dbName}
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		health.Error = err.Error()
		return health
	}
	health.Connected = true
	count, err := s.items.CountDocuments(ctx, bson.M{})
	if err != nil {
		health.Error = err.Error()
		return health
	}
	health.TotalItems = count
	return health
}

func statusStrings(statuses []Status) []string {
	out := make([]string, len(statuses))
	for i, status := range statuses {
		out[i] = string(status)
	}
	return out
}

func objectIDs(ids []string) ([]primitive.ObjectID, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "queue", "parse id", fmt.Sprintf("invalid item id %q", id), err)
		}
		oids = append(oids, oid)
	}
	return oids, nil
}
