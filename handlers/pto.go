package handlers

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"net/url"

	"pto/dates"
	"pto/export"
	"pto/ledger"
	"pto/middleware"
)

type PTOHandler struct {
	svc *ledger.Service
}

func NewPTOHandler(svc *ledger.Service) *PTOHandler {
	return &PTOHandler{svc: svc}
}

func (h *PTOHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	dash, err := h.svc.Dashboard(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

// NotifyPage prefills the request form from ?start= and ?end=.
func (h *PTOHandler) NotifyPage(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	q := r.URL.Query()
	page, err := h.svc.NotifyDefaults(r.Context(), user, q.Get("start"), q.Get("end"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *PTOHandler) Notify(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	form, err := ledger.ParseRequestForm(r.PostForm, h.svc.Settings().EmailBlacklist)
	if err != nil {
		writeError(w, err)
		return
	}
	entry, err := h.svc.Notify(r.Context(), user, form)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"entry":   entry,
		"message": "Entry added, now specify hours",
		"next":    fmt.Sprintf("/hours/%d", entry.ID),
	})
}

func (h *PTOHandler) HoursPage(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	page, err := h.svc.HoursForm(r.Context(), middleware.GetUserFromContext(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *PTOHandler) SaveHours(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	res, err := h.svc.SaveHours(r.Context(), middleware.GetUserFromContext(r.Context()), id, r.PostForm)
	if err != nil {
		writeError(w, err)
		return
	}

	next := fmt.Sprintf("/emails-sent/%d", id)
	if len(res.Recipients) > 0 {
		next += "?" + url.Values{"e": res.Recipients}.Encode()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_hours": res.TotalHours,
		"is_edit":     res.IsEdit,
		"emails":      res.Recipients,
		"message":     fmt.Sprintf("%d hours of PTO logged.", res.TotalHours),
		"next":        next,
	})
}

func (h *PTOHandler) EmailsSent(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	users, err := h.svc.EmailsSent(r.Context(), middleware.GetUserFromContext(r.Context()), id, r.URL.Query()["e"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"emailed_users": users})
}

// CalendarEvents takes start and end as epoch seconds.
func (h *PTOHandler) CalendarEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("start") == "" {
		http.Error(w, "Argument start missing", http.StatusBadRequest)
		return
	}
	if q.Get("end") == "" {
		http.Error(w, "Argument end missing", http.StatusBadRequest)
		return
	}
	start, err := dates.ParseDatetime(q.Get("start"))
	if err != nil {
		http.Error(w, "Invalid start", http.StatusBadRequest)
		return
	}
	end, err := dates.ParseDatetime(q.Get("end"))
	if err != nil {
		http.Error(w, "Invalid end", http.StatusBadRequest)
		return
	}

	events, err := h.svc.CalendarEvents(r.Context(), middleware.GetUserFromContext(r.Context()), start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// list runs the filter from the query string. A filter that does not
// parse lists nothing.
func (h *PTOHandler) list(r *http.Request) (*ledger.ListPage, error) {
	f, err := ledger.ParseFilter(r.URL.Query())
	return h.svc.List(r.Context(), f, err == nil)
}

func (h *PTOHandler) ListJSON(w http.ResponseWriter, r *http.Request) {
	page, err := h.list(r)
	if err != nil {
		writeError(w, err)
		return
	}
	data := make([][]any, 0, len(page.Rows))
	for _, row := range page.Rows {
		data = append(data, row.ListValues())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"aaData":           data,
		"first_date":       dates.Format(page.FirstDate),
		"last_date":        dates.Format(page.LastDate),
		"first_filed_date": dates.Format(page.FirstFiled),
	})
}

func (h *PTOHandler) ListCSV(w http.ResponseWriter, r *http.Request) {
	page, err := h.list(r)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=pto.csv")
	if err := export.WriteCSV(w, page.Rows); err != nil {
		log.Printf("write csv: %v", err)
	}
}

func (h *PTOHandler) ListXLSX(w http.ResponseWriter, r *http.Request) {
	page, err := h.list(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, page.Rows); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=pto.xlsx")
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Printf("write xlsx: %v", err)
	}
}
