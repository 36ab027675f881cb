package api

import "net/http"

// The API keeps the method+`?action=` surface of the original clients.
// Instead of string switches inside one handler, each endpoint carries
// a typed route table keyed by (method, action).
type actionKey struct {
	Method string
	Action string
}

func dispatch(table map[actionKey]http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		handler, ok := table[actionKey{Method: r.Method, Action: r.URL.Query().Get("action")}]
		if !ok {
			respondError(w, http.StatusNotFound, "Unknown action")
			return
		}
		handler(w, r)
	}
}

// AuthEndpoint serves /auth. Register and login are unauthenticated;
// logout and verify read the bearer token themselves.
func (s *Server) AuthEndpoint() http.HandlerFunc {
	return dispatch(map[actionKey]http.HandlerFunc{
		{http.MethodPost, "register"}: s.RegisterHandler,
		{http.MethodPost, "login"}:    s.LoginHandler,
		{http.MethodPost, "logout"}:   s.LogoutHandler,
		{http.MethodGet, "verify"}:    s.VerifyHandler,
	})
}

// FilesEndpoint serves /files behind AuthMiddleware. The two admin
// listings live here for compatibility with the original clients but
// require the reserved admin account.
func (s *Server) FilesEndpoint() http.HandlerFunc {
	return dispatch(map[actionKey]http.HandlerFunc{
		{http.MethodPost, "upload"}:          s.UploadFileHandler,
		{http.MethodPost, "text"}:            s.SaveTextHandler,
		{http.MethodGet, "list"}:             s.ListFilesHandler,
		{http.MethodGet, "download"}:         s.DownloadFileHandler,
		{http.MethodDelete, ""}:              s.DeleteFileHandler,
		{http.MethodGet, "admin-users"}:      s.requireAdmin(s.AdminListUsersHandler),
		{http.MethodGet, "admin-user-files"}: s.requireAdmin(s.AdminListUserFilesHandler),
	})
}

// AdminEndpoint serves /admin behind AuthMiddleware + AdminMiddleware.
func (s *Server) AdminEndpoint() http.HandlerFunc {
	return dispatch(map[actionKey]http.HandlerFunc{
		{http.MethodGet, "stats"}:   s.StatsHandler,
		{http.MethodDelete, "user"}: s.AdminDeleteUserHandler,
		{http.MethodDelete, "file"}: s.AdminDeleteFileHandler,
	})
}
