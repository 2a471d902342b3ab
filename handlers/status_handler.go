package handlers

import (
	"net/http"

	"github.com/upb/hybrid-summarizer/utils"
)

// StatusInfo describes the running configuration reported by GET /api/v1/status
type StatusInfo struct {
	Version        string   `json:"version"`
	Environment    string   `json:"environment"`
	Remote         string   `json:"remote"`
	Providers      []string `json:"providers"`
	Threshold      int      `json:"threshold"`
	Metric         string   `json:"metric"`
	HistoryEnabled bool     `json:"historyEnabled"`
}

// StatusHandler returns application status information
func StatusHandler(info StatusInfo) http.HandlerFunc {
	if info.Remote == "" {
		info.Remote = "none"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteJSON(w, http.StatusOK, info)
	}
}
