package config

import (
	"context"
	"fmt"
	"nutrition-catalog/domain"
	"nutrition-catalog/internal/events"
	"nutrition-catalog/internal/utils"
	"nutrition-catalog/internal/utils/mailing"
	"nutrition-catalog/internal/utils/storage"
	"nutrition-catalog/pkg/docstore"
	"nutrition-catalog/pkg/legacy"
	"nutrition-catalog/pkg/reference"
	"nutrition-catalog/pkg/verification"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

// Backends are the external stores and sinks the services run on.
type Backends struct {
	Docs          docstore.Store
	RemoteBlobs   storage.BlobStore
	LocalBlobs    storage.BlobStore
	Legacy        legacy.Scoper
	Reference     func() []domain.CatalogItem
	Events        events.Writer
	Notifier      verification.Notifier
	Moderators    verification.Moderators
	JWTSecret     string
	RemoteTimeout time.Duration
}

// OpenBackends builds the backends named in config. The returned closer
// releases everything that was opened.
func OpenBackends(ctx context.Context) (Backends, func(), error) {
	var closers []func() error
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Warnf("close backend: %v", err)
			}
		}
	}

	b := Backends{
		JWTSecret:     utils.GetConfig("JWT_SECRET"),
		Moderators:    verification.NewModerators(utils.GetConfigList("MODERATOR_IDS"), utils.GetConfigList("MODERATOR_EMAILS")),
		RemoteTimeout: utils.GetConfigDuration("ASSET_REMOTE_TIMEOUT", 5*time.Second),
	}

	switch backend := utils.GetConfig("DOCSTORE_BACKEND"); backend {
	case "postgres":
		db, err := ConnectDB()
		if err != nil {
			return Backends{}, closeAll, err
		}
		b.Docs = docstore.NewGormStore(db)
	case "memory":
		log.Warnf("DOCSTORE_BACKEND=memory: submissions are lost on restart")
		b.Docs = docstore.NewMemoryStore()
	default:
		return Backends{}, closeAll, fmt.Errorf("unknown DOCSTORE_BACKEND %q", backend)
	}

	switch backend := utils.GetConfig("BLOBSTORE_BACKEND"); backend {
	case "s3":
		s3, err := storage.NewAwsS3(ctx, storage.S3Config{
			Bucket:    utils.GetConfig("AWS_S3_BUCKET"),
			Region:    utils.GetConfig("AWS_S3_REGION"),
			AccessKey: utils.GetConfig("AWS_ACCESS_KEY"),
			SecretKey: utils.GetConfig("AWS_SECRET_KEY"),
		})
		if err != nil {
			return Backends{}, closeAll, fmt.Errorf("s3: %w", err)
		}
		b.RemoteBlobs = s3
	case "local":
	default:
		return Backends{}, closeAll, fmt.Errorf("unknown BLOBSTORE_BACKEND %q", backend)
	}

	local, err := storage.NewLocalStore(utils.GetConfig("ASSET_DIR"))
	if err != nil {
		return Backends{}, closeAll, fmt.Errorf("asset dir: %w", err)
	}
	b.LocalBlobs = local

	pebbleStore, err := legacy.NewPebbleStore(utils.GetConfig("LEGACY_DB_DIR"))
	if err != nil {
		return Backends{}, closeAll, fmt.Errorf("legacy store: %w", err)
	}
	closers = append(closers, pebbleStore.Close)
	b.Legacy = pebbleStore

	b.Reference = reference.Default
	if path := utils.GetConfig("REFERENCE_DATASET"); path != "" {
		items, err := reference.LoadParquet(path)
		if err != nil {
			log.Warnf("reference dataset %s: %v, using built-in set", path, err)
		} else {
			log.Infof("loaded %d reference foods from %s", len(items), path)
			b.Reference = func() []domain.CatalogItem {
				out := make([]domain.CatalogItem, len(items))
				copy(out, items)
				return out
			}
		}
	}

	fileEvents, err := events.NewFileWriter(utils.GetConfig("EVENT_LOG_DIR"), "decisions.jsonl")
	if err != nil {
		return Backends{}, closeAll, fmt.Errorf("event log: %w", err)
	}
	writers := []events.Writer{fileEvents}
	if bootstrap := utils.GetConfig("KAFKA_BOOTSTRAP"); bootstrap != "" {
		kafkaEvents := events.NewKafkaWriter(bootstrap, utils.GetConfig("KAFKA_TOPIC_DECISIONS"))
		closers = append(closers, kafkaEvents.Close)
		writers = append(writers, kafkaEvents)
	}
	b.Events = events.NewMultiWriter(writers...)

	if mailCfg := mailing.LoadMailConfig(); mailCfg.Enabled() {
		b.Notifier = mailing.NewDecisionNotifier(mailCfg)
	}

	return b, closeAll, nil
}
