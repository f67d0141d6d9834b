package httpapi

import "net/http"

func (s *Server) monthlySummary(w http.ResponseWriter, r *http.Request) {
	month, year, err := parseMonthYear(r)
	if err != nil {
		s.serviceErr(w, r, err)
		return
	}
	res, err := s.summarySvc.Monthly(r.Context(), userID(r), month, year)
	if err != nil {
		s.serviceErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, toSummaryResponse(res))
}
