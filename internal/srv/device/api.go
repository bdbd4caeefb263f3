package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jypelle/frontpanel/apimodel"
	"github.com/jypelle/frontpanel/internal/frame"
	"github.com/jypelle/frontpanel/internal/srv/config"
	"github.com/jypelle/frontpanel/internal/srv/event"
	"github.com/jypelle/frontpanel/internal/tool"
	"github.com/jypelle/frontpanel/internal/version"
	"github.com/sirupsen/logrus"
)

const apiEventTimeout = 5 * time.Second

// Api exposes the panel state and accepts remote dial input over HTTPS.
type Api struct {
	eventChannel  chan event.ApiEvent
	stateProvider func() apimodel.StateMessage

	router *mux.Router
	server *http.Server

	config *config.ServerConfig
}

func NewApi(config *config.ServerConfig, stateProvider func() apimodel.StateMessage) *Api {
	api := Api{
		config:        config,
		stateProvider: stateProvider,
		eventChannel:  make(chan event.ApiEvent),
	}

	api.router = mux.NewRouter().StrictSlash(false)

	apiRouter := api.router.PathPrefix("/api").Subrouter()
	apiRouter.NotFoundHandler = http.HandlerFunc(ErrorNotFoundAction)
	apiRouter.MethodNotAllowedHandler = http.HandlerFunc(ErrorMethodNotAllowedAction)

	// Auth middleware
	apiRouter.Use(
		func(handler http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer func() {
					if rec := recover(); rec != nil {
						logrus.Warningf("recovered from panic : [%v] - stack trace : \n [%s]", rec, debug.Stack())
						apimodel.NewErrorMessage(http.StatusInternalServerError, fmt.Sprintf("%v", rec)).Send(w)
					}
				}()

				// Check API Key
				if r.Header.Get("x-api-key") != config.ServerParam.ApiParam.ApiKey {
					ErrorStatusAction(w, r, http.StatusForbidden)
					return
				}

				logrus.Debugf("PATH: %s %s", r.Host, r.URL.Path)

				handler.ServeHTTP(w, r)
			})
		})

	apiRouter.HandleFunc("/is_alive",
		func(w http.ResponseWriter, r *http.Request) {
			ErrorStatusAction(w, r, http.StatusOK)
		}).Methods("GET")

	apiRouter.HandleFunc("/version",
		func(w http.ResponseWriter, r *http.Request) {
			writeJson(w, map[string]string{"name": version.AppName, "version": version.AppVersion.String()})
		}).Methods("GET")

	apiRouter.HandleFunc("/state",
		func(w http.ResponseWriter, r *http.Request) {
			writeJson(w, api.stateProvider())
		}).Methods("GET")

	apiRouter.HandleFunc("/dial/press",
		func(w http.ResponseWriter, r *http.Request) {
			api.sendDialCommand(w, r, event.DialCommand{Type: event.DIAL_PRESSED})
		}).Methods("POST")

	apiRouter.HandleFunc("/dial/turn/{delta}",
		func(w http.ResponseWriter, r *http.Request) {
			delta, err := strconv.ParseInt(mux.Vars(r)["delta"], 10, 0)
			if err != nil || delta == 0 || delta < -frame.MaxEncoderDelta || delta > frame.MaxEncoderDelta {
				apimodel.NewErrorMessage(http.StatusBadRequest, fmt.Sprintf("delta has to be a non zero integer between %d and %d", -frame.MaxEncoderDelta, frame.MaxEncoderDelta)).Send(w)
				return
			}
			api.sendDialCommand(w, r, event.DialCommand{Type: event.DIAL_TURNED, Delta: int(delta)})
		}).Methods("POST")

	// Tell the browser that it's OK for JS to communicate with the server
	headersOk := handlers.AllowedHeaders([]string{"x-api-key"})
	originsOk := handlers.AllowedOrigins([]string{"*"})
	methodsOk := handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"})

	api.server = &http.Server{
		Addr:         ":" + strconv.FormatInt(config.ServerParam.ApiParam.SslPort, 10),
		Handler:      api.Handler(headersOk, originsOk, methodsOk),
		ReadTimeout:  time.Second * 30,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 120,
	}

	return &api
}

// Handler wraps the router with compression and CORS.
func (d *Api) Handler(corsOptions ...handlers.CORSOption) http.Handler {
	return handlers.CompressHandler(handlers.CORS(corsOptions...)(d.router))
}

func (d *Api) sendDialCommand(w http.ResponseWriter, r *http.Request, command event.DialCommand) {
	result := make(chan error, 1)
	apiEvent := event.ApiEvent{Result: result, Data: event.ApiEventDialData{Command: command}}

	ctx, cancel := context.WithTimeout(r.Context(), apiEventTimeout)
	defer cancel()

	select {
	case d.eventChannel <- apiEvent:
	case <-ctx.Done():
		ErrorStatusAction(w, r, http.StatusServiceUnavailable)
		return
	}

	select {
	case err := <-result:
		if err != nil {
			apimodel.NewErrorMessage(http.StatusServiceUnavailable, err.Error()).Send(w)
			return
		}
		ErrorStatusAction(w, r, http.StatusAccepted)
	case <-ctx.Done():
		ErrorStatusAction(w, r, http.StatusServiceUnavailable)
	}
}

func (d *Api) Start() {
	logrus.Infof("Start api device")

	existServerCert, err := tool.IsFileExists(d.selfSignedCertFilename())
	if err != nil {
		logrus.Fatalf("Unable to access %s: %v\n", d.selfSignedCertFilename(), err)
	}

	existServerKey, err := tool.IsFileExists(d.selfSignedKeyFilename())
	if err != nil {
		logrus.Fatalf("Unable to access %s: %v\n", d.selfSignedKeyFilename(), err)
	}

	if !existServerCert || !existServerKey {
		logrus.Info("Missing cert and key files, trying to generate them...")
		err = tool.GenerateTlsCertificate(
			"jypelle",
			"Frontpanel Server",
			d.selfSignedKeyFilename(),
			d.selfSignedCertFilename(),
			[]string{})
		if err != nil {
			logrus.Fatalf("Unable to generate cert and key files : %v\n", err)
		}
		logrus.Info("Self-signed cert and key files generated")
	}

	// Launch https server
	go func() {
		err := d.server.ListenAndServeTLS(d.selfSignedCertFilename(), d.selfSignedKeyFilename())
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Error(err)
		}
	}()
}

func (d *Api) Stop() {
	logrus.Infof("Stop api device")
	ctx, cancel := context.WithTimeout(context.Background(), apiEventTimeout)
	defer cancel()
	if err := d.server.Shutdown(ctx); err != nil {
		logrus.Warnf("Unable to shutdown api server: %v", err)
	}
}

func (d *Api) EventChannel() <-chan event.ApiEvent {
	return d.eventChannel
}

func (d *Api) selfSignedKeyFilename() string {
	return filepath.Join(d.config.ConfigDir, "key.pem")
}

func (d *Api) selfSignedCertFilename() string {
	return filepath.Join(d.config.ConfigDir, "cert.pem")
}

func writeJson(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("Unable to encode response: %v", err)
	}
}

func ErrorNotFoundAction(w http.ResponseWriter, r *http.Request) {
	ErrorStatusAction(w, r, http.StatusNotFound)
}

func ErrorMethodNotAllowedAction(w http.ResponseWriter, r *http.Request) {
	ErrorStatusAction(w, r, http.StatusMethodNotAllowed)
}

func ErrorStatusAction(w http.ResponseWriter, r *http.Request, status int) {
	apimodel.NewErrorMessage(status, "").Send(w)
}
