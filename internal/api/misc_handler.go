package api

import (
	"encoding/json"
	"net/http"

	"github.com/2beens/gymreps/internal/reps"
	"github.com/2beens/gymreps/pkg"

	log "github.com/sirupsen/logrus"
)

type ExercisesResponse struct {
	Supported  []string `json:"supported"`
	Selectable []string `json:"selectable"`
	Default    []string `json:"default"`
}

type MiscHandler struct {
	versionInfo string
}

func NewMiscHandler(versionInfo string) *MiscHandler {
	return &MiscHandler{
		versionInfo: versionInfo,
	}
}

func (handler *MiscHandler) HandleRoot(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, "I'm OK, thanks ;)")
}

func (handler *MiscHandler) HandleVersion(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, handler.versionInfo)
}

// HandleExercises lists the exercises a session can be started with.
func (handler *MiscHandler) HandleExercises(w http.ResponseWriter, _ *http.Request) {
	respJson, err := json.Marshal(ExercisesResponse{
		Supported:  reps.SupportedExercises(),
		Selectable: reps.SelectableExercises,
		Default:    reps.DefaultExercises,
	})
	if err != nil {
		log.Errorf("failed to marshal exercises: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSONResponseOK(w, string(respJson))
}
