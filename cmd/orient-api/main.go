package main

import (
	"context"
	"log"
	"net/http"

	httpadapter "github.com/livingsystems/orient/internal/adapters/http"
	"github.com/livingsystems/orient/internal/adapters/llm"
	"github.com/livingsystems/orient/internal/adapters/sources"
	firestorestore "github.com/livingsystems/orient/internal/adapters/storage/firestore"
	memstore "github.com/livingsystems/orient/internal/adapters/storage/memory"
	sqlitestore "github.com/livingsystems/orient/internal/adapters/storage/sqlite"
	"github.com/livingsystems/orient/internal/app/aims"
	"github.com/livingsystems/orient/internal/app/session"
	"github.com/livingsystems/orient/internal/app/synthesis"
	"github.com/livingsystems/orient/internal/app/wellbeing"
	"github.com/livingsystems/orient/internal/config"
	"github.com/livingsystems/orient/internal/domain"
)

// defaultOrientation seeds the orientation document on first boot so the
// context block never starts life without one.
const defaultOrientation = `I want to build a stable foundation for health and wellbeing in a way that supports the people around me.

I want to engage with my days with curiosity and energy, following what feels alive and generative.`

// stores bundles every persistence port so one backend can satisfy all of
// them or the memory backend can mix per-entity stores.
type stores struct {
	sessions    domain.SessionStore
	messages    domain.MessageStore
	snapshots   domain.SnapshotStore
	tracked     domain.TrackedItemStore
	scores      domain.ScoreStore
	aims        domain.AimStore
	orientation domain.OrientationStore
	tokens      domain.TokenStore
}

func main() {
	ctx := context.Background()
	cfg := config.Load()
	loc := cfg.Location()

	// Chat backend: mock or Gemini by env.
	var backend domain.ChatBackend
	if cfg.UseMockLLM {
		log.Println("[LLM] Using MOCK chat backend")
		backend = llm.NewMock()
	} else {
		log.Printf("[LLM] Using Gemini (project=%s model=%s)", cfg.GCPProjectID, cfg.ModelName)
		gemini, err := llm.NewGemini(ctx, cfg.GCPProjectID, cfg.GCPLocation, cfg.ModelName)
		if err != nil {
			log.Fatalf("error initializing Gemini backend: %v", err)
		}
		backend = gemini
	}

	st := openStores(ctx, cfg)

	seedOrientation(ctx, st.orientation)

	// External data sources, all degrading to empty when not connected.
	auth := sources.NewGoogleAuth(cfg.GoogleClientID, cfg.GoogleClientSecret, st.tokens)
	builder := synthesis.NewBuilder(synthesis.Deps{
		Calendar:    sources.NewCalendar(auth, st.tokens, loc),
		Email:       sources.NewMail(auth, st.tokens),
		Biometrics:  sources.NewOura(cfg.OuraClientID, cfg.OuraClientSecret, st.tokens),
		Snapshots:   st.snapshots,
		Tracked:     st.tracked,
		Scores:      st.scores,
		Aims:        st.aims,
		Orientation: st.orientation,
		Sessions:    st.sessions,
	}, loc)

	sessionSvc := session.NewService(backend, st.sessions, st.messages, st.scores, st.aims, builder, loc)
	aimSvc := aims.NewService(st.aims)
	wbSvc := wellbeing.NewService(st.scores, st.tracked)

	handler := httpadapter.NewServer(sessionSvc, aimSvc, wbSvc, builder, st.snapshots, st.orientation,
		httpadapter.Options{
			AgentSecret:   cfg.AgentSecret,
			AllowedOrigin: cfg.AllowedOrigin,
		})

	addr := ":" + cfg.Port
	log.Println("Orient API listening on", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatal(err)
	}
}

func openStores(ctx context.Context, cfg *config.Config) stores {
	switch cfg.StorageBackend {
	case "firestore":
		log.Printf("[STORE] Using Firestore storage (project=%s)", cfg.GCPProjectID)
		fs, err := firestorestore.NewStore(ctx, cfg.GCPProjectID, cfg.Location())
		if err != nil {
			log.Fatalf("error initializing Firestore store: %v", err)
		}
		return allFrom(fs)

	case "memory":
		log.Println("[STORE] Using in-memory storage")
		return stores{
			sessions:    memstore.NewSessionStore(),
			messages:    memstore.NewMessageStore(),
			snapshots:   memstore.NewSnapshotStore(),
			tracked:     memstore.NewTrackedItemStore(),
			scores:      memstore.NewScoreStore(),
			aims:        memstore.NewAimStore(),
			orientation: memstore.NewOrientationStore(),
			tokens:      memstore.NewTokenStore(),
		}

	default:
		log.Printf("[STORE] Using sqlite storage (%s)", cfg.DBPath)
		db, err := sqlitestore.NewStore(cfg.DBPath, cfg.Location())
		if err != nil {
			log.Fatalf("error initializing sqlite store: %v", err)
		}
		return allFrom(db)
	}
}

// allFrom wires a single store implementing every port into the bundle.
type allPorts interface {
	domain.SessionStore
	domain.MessageStore
	domain.SnapshotStore
	domain.TrackedItemStore
	domain.ScoreStore
	domain.AimStore
	domain.OrientationStore
	domain.TokenStore
}

func allFrom(s allPorts) stores {
	return stores{
		sessions:    s,
		messages:    s,
		snapshots:   s,
		tracked:     s,
		scores:      s,
		aims:        s,
		orientation: s,
		tokens:      s,
	}
}

func seedOrientation(ctx context.Context, store domain.OrientationStore) {
	existing, err := store.GetOrientation(ctx)
	if err != nil {
		log.Printf("orientation read failed, skipping seed: %v", err)
		return
	}
	if existing != nil {
		return
	}
	if _, err := store.SetOrientation(ctx, defaultOrientation); err != nil {
		log.Printf("orientation seed failed: %v", err)
	}
}
