package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/linesmerrill/dispatch-api/api"
	"github.com/linesmerrill/dispatch-api/api/handoff"
	"github.com/linesmerrill/dispatch-api/api/scheduler"
	"github.com/linesmerrill/dispatch-api/config"
	"github.com/linesmerrill/dispatch-api/connections"
	"github.com/linesmerrill/dispatch-api/databases"
	"github.com/linesmerrill/dispatch-api/models"
)

const defaultRequestTimeout = 30 * time.Second

// App stores the router and db connection, so it can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	Registry  *connections.Registry
	Hub       *connections.Hub
	Handoff   *handoff.Service
	Scheduler *scheduler.Scheduler
	Metrics   *api.MetricsCollector

	client   databases.ClientHelper
	dbHelper databases.DatabaseHelper
	redis    *redis.Client

	stopHeartbeat context.CancelFunc
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	if a.Registry == nil {
		a.Registry = connections.NewRegistry(nil)
	}
	if a.Hub == nil {
		a.Hub = connections.NewHub()
		a.Registry.AttachTransport(a.Hub)
	}
	if a.Metrics == nil {
		a.Metrics = api.NewMetricsCollector()
	}
	timeout := a.Config.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	udb := databases.NewUserDatabase(a.dbHelper)
	idb := databases.NewIncidentDatabase(a.dbHelper)
	hdb := databases.NewHospitalDatabase(a.dbHelper)
	pdb := databases.NewPatientDatabase(a.dbHelper)
	a.Handoff = handoff.NewService(udb, idb, databases.NewHandoffDatabase(a.dbHelper), a.Registry)

	// setup go-guardian for middleware
	m := api.NewAuth(udb, a.Config.JWTSecret)

	u := User{DB: udb, Auth: m, Registry: a.Registry, Handoff: a.Handoff}
	inc := Incident{DB: idb, Registry: a.Registry}
	bed := ERBed{DB: databases.NewERBedDatabase(a.dbHelper), HDB: hdb, PDB: pdb, Registry: a.Registry}
	h := Hospital{DB: hdb, PDB: pdb}
	p := Patient{PDB: pdb, SDB: databases.NewPatientStatusDatabase(a.dbHelper)}
	s := Socket{Auth: m, Registry: a.Registry, Hub: a.Hub}

	r := mux.NewRouter()
	r.Use(api.MetricsMiddleware(a.Metrics))

	// healthchex
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")
	r.HandleFunc("/ws", s.ConnectHandler).Methods("GET")

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Use(api.TimeoutMiddleware(timeout))

	apiRouter.HandleFunc("/users", u.RegisterHandler).Methods("POST")
	apiRouter.HandleFunc("/login", u.LoginHandler).Methods("POST")

	apiRouter.Handle("/logout", m.Middleware(http.HandlerFunc(u.LogoutHandler))).Methods("POST")
	apiRouter.Handle("/metrics", m.Middleware(http.HandlerFunc(a.Metrics.SummaryHandler))).Methods("GET")

	apiRouter.Handle("/users", m.Middleware(http.HandlerFunc(u.ListUsersHandler))).Methods("GET")
	apiRouter.Handle("/users/{userId}/location", m.Middleware(http.HandlerFunc(u.LocationHandler))).Methods("GET")
	apiRouter.Handle("/users/{userId}/location", m.Middleware(http.HandlerFunc(u.UpdateLocationHandler))).Methods("PUT")
	apiRouter.Handle("/users/{username}/vehicle", m.Middleware(http.HandlerFunc(u.SelectVehicleHandler))).Methods("PUT")
	apiRouter.Handle("/users/{username}/vehicle", m.Middleware(http.HandlerFunc(u.ReleaseVehicleHandler))).Methods("DELETE")
	apiRouter.Handle("/personnel", m.Middleware(http.HandlerFunc(u.AvailablePersonnelHandler))).Methods("GET")
	apiRouter.Handle("/personnel/{username}/city", m.Middleware(http.HandlerFunc(u.UpdateCityHandler))).Methods("PUT")

	apiRouter.Handle("/incidents", m.Middleware(http.HandlerFunc(inc.CreateIncidentHandler))).Methods("POST")
	apiRouter.Handle("/incidents/new", m.Middleware(http.HandlerFunc(inc.NewIncidentHandler))).Methods("POST")
	apiRouter.Handle("/incidents", m.Middleware(http.HandlerFunc(inc.IncidentsHandler))).Methods("GET")
	apiRouter.Handle("/incidents/{username}/active", m.Middleware(http.HandlerFunc(inc.ActiveIncidentHandler))).Methods("GET")
	apiRouter.Handle("/incidents/{incidentId}", m.Middleware(http.HandlerFunc(inc.IncidentHandler))).Methods("GET")
	apiRouter.Handle("/incidents/{incidentId}", m.Middleware(http.HandlerFunc(inc.CloseIncidentHandler))).Methods("DELETE")
	apiRouter.Handle("/incidents/{incidentId}/state", m.Middleware(http.HandlerFunc(inc.UpdateStateHandler))).Methods("PUT")
	apiRouter.Handle("/incidents/{incidentId}/commander", m.Middleware(http.HandlerFunc(inc.UpdateCommanderHandler))).Methods("PUT")
	apiRouter.Handle("/incidents/{incidentId}/chat-group", m.Middleware(http.HandlerFunc(inc.UpdateChatGroupHandler))).Methods("PUT")
	apiRouter.Handle("/incidents/{incidentId}/vehicles", m.Middleware(http.HandlerFunc(inc.AddVehicleHandler))).Methods("PUT")
	apiRouter.Handle("/incidents/{incidentId}/vehicles/{name}", m.Middleware(http.HandlerFunc(inc.RemoveVehicleHandler))).Methods("DELETE")

	apiRouter.Handle("/erbed/request", m.Middleware(http.HandlerFunc(bed.RequestBedHandler))).Methods("POST")
	apiRouter.Handle("/erbed/hospital/{hospitalId}", m.Middleware(http.HandlerFunc(bed.CreateBedHandler))).Methods("POST")
	apiRouter.Handle("/erbed/hospital/{hospitalId}", m.Middleware(http.HandlerFunc(bed.BedsHandler))).Methods("GET")
	apiRouter.Handle("/erbed/hospital/{hospitalId}/available", m.Middleware(http.HandlerFunc(bed.AvailableBedsHandler))).Methods("GET")
	apiRouter.Handle("/erbed/hospital/{hospitalId}/patients", m.Middleware(http.HandlerFunc(bed.PatientsHandler))).Methods("GET")
	apiRouter.Handle("/erbed/{bedId}/status", m.Middleware(http.HandlerFunc(bed.UpdateStatusHandler))).Methods("PUT")
	apiRouter.Handle("/erbed/{bedId}/category", m.Middleware(http.HandlerFunc(bed.UpdateCategoryHandler))).Methods("PUT")

	apiRouter.Handle("/hospitals", m.Middleware(http.HandlerFunc(h.CreateHospitalHandler))).Methods("POST")
	apiRouter.Handle("/hospitals", m.Middleware(http.HandlerFunc(h.HospitalsHandler))).Methods("GET")
	apiRouter.Handle("/hospitals/{hospitalId}", m.Middleware(http.HandlerFunc(h.HospitalHandler))).Methods("GET")
	apiRouter.Handle("/patients", m.Middleware(http.HandlerFunc(h.CreatePatientHandler))).Methods("POST")
	apiRouter.Handle("/patients/assigned", m.Middleware(http.HandlerFunc(p.AssignedPatientsHandler))).Methods("GET")
	apiRouter.Handle("/patients/{patientId}", m.Middleware(http.HandlerFunc(h.PatientHandler))).Methods("GET")
	apiRouter.Handle("/patients/{patientId}/status", m.Middleware(http.HandlerFunc(p.StatusHandler))).Methods("GET")
	apiRouter.Handle("/patients/{patientId}/status", m.Middleware(http.HandlerFunc(p.UpdateStatusHandler))).Methods("PUT")
	apiRouter.Handle("/patients/{patientId}/visitlogs", m.Middleware(http.HandlerFunc(p.CreateVisitLogHandler))).Methods("POST")
	apiRouter.Handle("/patients/{patientId}/visitlogs", m.Middleware(http.HandlerFunc(p.VisitLogsHandler))).Methods("GET")

	return r
}

// Initialize is invoked by main to connect with the database and redis,
// create a router and prepare the scheduler
func (a *App) Initialize() error {
	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.client = client
	a.dbHelper = databases.NewDatabase(&a.Config, client)
	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelConnect()
	err = client.Connect(connectCtx)
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("dispatch-api has connected to the database")
	if err := databases.EnsureIndexes(connectCtx, a.dbHelper); err != nil {
		zap.S().Warnw("failed to ensure indexes", "error", err)
	}

	var presence connections.PresenceStore
	if a.Config.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		rdb, err := connections.NewRedisClient(ctx, a.Config.RedisAddr, a.Config.RedisPassword, a.Config.RedisDB)
		if err != nil {
			zap.S().Warnw("redis unavailable, presence stays local to this instance", "error", err)
		} else {
			a.redis = rdb
			rp := connections.NewRedisPresence(rdb, "", "", a.Config.PresenceTTL)
			presence = rp
			zap.S().Infow("dispatch-api has connected to redis",
				"addr", a.Config.RedisAddr,
				"instance", rp.Instance(),
				"presenceTTL", rp.TTL(),
			)
		}
	}
	a.Registry = connections.NewRegistry(presence)
	if presence != nil {
		var hbCtx context.Context
		hbCtx, a.stopHeartbeat = context.WithCancel(context.Background())
		go a.Registry.Heartbeat(hbCtx, heartbeatInterval(a.Config.PresenceTTL))
	}

	// initialize api router
	a.initializeRoutes()
	a.Scheduler = scheduler.NewScheduler(a.Handoff, databases.NewSchedulerLockDatabase(a.dbHelper))
	return nil
}

// Close withdraws this instance's presence and releases the database and
// redis connections
func (a *App) Close(ctx context.Context) {
	if a.stopHeartbeat != nil {
		a.stopHeartbeat()
	}
	if a.Registry != nil {
		a.Registry.Close(ctx)
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			zap.S().Warnw("failed to close redis", "error", err)
		}
	}
	if a.client != nil {
		if err := a.client.Disconnect(ctx); err != nil {
			zap.S().Warnw("failed to disconnect from database", "error", err)
		}
	}
}

// heartbeatInterval refreshes presence three times per TTL so a single
// missed beat does not drop anyone
func heartbeatInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		ttl = connections.DefaultPresenceTTL
	}
	return ttl / 3
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
