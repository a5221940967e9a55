package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Veraticus/cashmind/internal/chat"
)

type sessionResponse struct {
	ID         string     `json:"id"`
	Phase      chat.Phase `json:"phase"`
	State      chat.State `json:"state"`
	Processing bool       `json:"processing"`
}

func newSessionResponse(sess *chat.Session, state chat.State) sessionResponse {
	return sessionResponse{
		ID:         sess.ID(),
		Phase:      state.Phase(),
		State:      state,
		Processing: sess.IsProcessing(),
	}
}

type messageRequest struct {
	Text string `json:"text" binding:"required"`
}

type flowRequest struct {
	Flow chat.FlowType `json:"flow" binding:"required"`
}

func (s *Server) session(c *gin.Context) (*chat.Session, bool) {
	sess, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) createSession(c *gin.Context) {
	sess := s.sessions.Create()
	c.JSON(http.StatusCreated, newSessionResponse(sess, sess.State()))
}

func (s *Server) getSession(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(sess, sess.State()))
}

func (s *Server) deleteSession(c *gin.Context) {
	if err := s.sessions.Delete(c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) sendMessage(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}

	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	state, err := sess.SendMessage(c.Request.Context(), req.Text)
	s.respondState(c, sess, state, err)
}

func (s *Server) uploadReceipt(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		badRequest(c, "No file uploaded")
		return
	}
	defer func() { _ = file.Close() }()

	// One byte past the limit lets the receipt router report the oversize upload.
	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadSize+1))
	if err != nil {
		badRequest(c, "Error reading file")
		return
	}

	state, err := sess.AnalyzeReceipt(c.Request.Context(), chat.Upload{
		Name:     header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		URL:      header.Filename,
		Data:     data,
	})
	s.respondState(c, sess, state, err)
}

func (s *Server) startFlow(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}

	var req flowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	state, err := sess.StartFlow(req.Flow)
	s.respondState(c, sess, state, err)
}

func (s *Server) confirm(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	state, err := sess.Confirm(c.Request.Context())
	s.respondState(c, sess, state, err)
}

func (s *Server) cancel(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	state, err := sess.Cancel()
	s.respondState(c, sess, state, err)
}

func (s *Server) reset(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(sess, sess.Reset()))
}

func (s *Server) respondState(c *gin.Context, sess *chat.Session, state chat.State, err error) {
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(sess, state))
}
