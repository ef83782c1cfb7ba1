package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/docdesigner/pkg/buildinfo"
	"github.com/matzehuels/docdesigner/pkg/template"
)

// MongoConfig configures the MongoDB mirror.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string // templates; preferences live in "<Collection>_prefs"

	ConnectTimeout time.Duration
}

// Mongo mirrors templates into a MongoDB collection keyed by template id.
type Mongo struct {
	client    *mongo.Client
	templates *mongo.Collection
	prefs     *mongo.Collection
}

const activePrefID = "activeTemplateId"

// NewMongo connects to MongoDB and verifies the connection.
func NewMongo(ctx context.Context, cfg MongoConfig) (*Mongo, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo: missing URI")
	}
	if cfg.Database == "" {
		cfg.Database = "docdesigner"
	}
	if cfg.Collection == "" {
		cfg.Collection = "invoice_templates"
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}

	opts := options.Client().ApplyURI(cfg.URI).SetConnectTimeout(cfg.ConnectTimeout).
		SetAppName(buildinfo.UserAgent())
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(cfg.Database)
	return &Mongo{
		client:    client,
		templates: db.Collection(cfg.Collection),
		prefs:     db.Collection(cfg.Collection + "_prefs"),
	}, nil
}

// templateDoc converts t into a document with _id set to the template id.
// The template is stored in its JSON shape so both mirrors hold the same
// representation.
func templateDoc(t *template.Template) (bson.M, error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("marshal template: %w", err)
	}
	var doc bson.M
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("convert template: %w", err)
	}
	delete(doc, "id")
	doc["_id"] = t.ID
	return doc, nil
}

// Upsert replaces the template document, inserting it if absent.
func (m *Mongo) Upsert(ctx context.Context, t *template.Template) error {
	doc, err := templateDoc(t)
	if err != nil {
		return err
	}
	_, err = m.templates.ReplaceOne(ctx, bson.M{"_id": t.ID}, doc, options.Replace().SetUpsert(true))
	return classifyMongo(err)
}

// Delete removes the template document. Deleting a missing id succeeds.
func (m *Mongo) Delete(ctx context.Context, templateID string) error {
	_, err := m.templates.DeleteOne(ctx, bson.M{"_id": templateID})
	return classifyMongo(err)
}

// SetActive records the active template preference.
func (m *Mongo) SetActive(ctx context.Context, templateID string) error {
	_, err := m.prefs.UpdateOne(ctx,
		bson.M{"_id": activePrefID},
		bson.M{"$set": bson.M{"value": templateID, "updatedAt": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	return classifyMongo(err)
}

// Fetch returns the mirrored copy of a template. ok is false when absent.
func (m *Mongo) Fetch(ctx context.Context, templateID string) (*template.Template, bool, error) {
	var doc bson.M
	err := m.templates.FindOne(ctx, bson.M{"_id": templateID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	doc["id"] = doc["_id"]
	delete(doc, "_id")

	ext, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return nil, false, err
	}
	var t template.Template
	if err := json.Unmarshal(ext, &t); err != nil {
		return nil, false, fmt.Errorf("decode template %s: %w", templateID, err)
	}
	return &t, true, nil
}

// Close disconnects the client.
func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func classifyMongo(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return Retryable(err)
	}
	return err
}

var _ Mirror = (*Mongo)(nil)
