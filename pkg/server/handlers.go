package server

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"ditherbooth/pkg/booth"
	"ditherbooth/pkg/fault"
	"ditherbooth/pkg/media"
	"ditherbooth/pkg/spool"
)

func (s *Server) print(c *gin.Context) {
	st, err := s.store.Load()
	if err != nil {
		s.fail(c, err)
		return
	}
	data, err := readUpload(c)
	if err != nil {
		s.fail(c, err)
		return
	}

	res, err := s.booth.Print(c.Request.Context(), st, booth.Request{
		Data:  data,
		Media: c.PostForm("media"),
		Lang:  c.PostForm("lang"),
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (s *Server) preview(c *gin.Context) {
	st, err := s.store.Load()
	if err != nil {
		s.fail(c, err)
		return
	}
	data, err := readUpload(c)
	if err != nil {
		s.fail(c, err)
		return
	}

	out, err := s.booth.Preview(c.Request.Context(), st, booth.Request{
		Data:  data,
		Media: c.PostForm("media"),
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	c.Data(http.StatusOK, "image/png", out)
}

type PublicConfig struct {
	DefaultMedia    media.ID                   `json:"default_media"`
	DefaultLang     media.Lang                 `json:"default_lang"`
	LockControls    bool                       `json:"lock_controls"`
	MediaOptions    []string                   `json:"media_options"`
	LangOptions     []string                   `json:"lang_options"`
	MediaDimensions map[string]media.Dimension `json:"media_dimensions"`
}

func (s *Server) publicConfig(c *gin.Context) {
	st, err := s.store.Load()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, PublicConfig{
		DefaultMedia:    st.DefaultMedia,
		DefaultLang:     st.DefaultLang,
		LockControls:    st.LockControls,
		MediaOptions:    media.IDs(),
		LangOptions:     media.Langs(),
		MediaDimensions: media.Dimensions(),
	})
}

func (s *Server) devAuth(c *gin.Context) {
	supplied, ok := c.Request.Header[http.CanonicalHeaderKey(spool.PasswordHeader)]
	if !ok || len(supplied) == 0 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Missing " + spool.PasswordHeader})
		return
	}
	// an empty password disables the dev endpoints instead of opening them
	if s.password == "" || subtle.ConstantTimeCompare([]byte(supplied[0]), []byte(s.password)) != 1 {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "Invalid password"})
		return
	}
	c.Next()
}

func (s *Server) getSettings(c *gin.Context) {
	st, err := s.store.Load()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"config":        st,
		"media_options": media.IDs(),
		"lang_options":  media.Langs(),
	})
}

func (s *Server) putSettings(c *gin.Context) {
	var patch map[string]json.RawMessage
	if err := c.ShouldBindJSON(&patch); err != nil || patch == nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "Invalid payload"})
		return
	}

	st, err := s.store.Update(patch)
	if err != nil {
		s.fail(c, err)
		return
	}

	s.logger.Info("settings saved")
	c.JSON(http.StatusOK, gin.H{"status": "saved", "config": st})
}

// spool accepts an already encoded payload, the receiving end of a remote
// printer on another instance.
func (s *Server) spool(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, booth.MaxUpload+1))
	if err != nil {
		s.fail(c, fault.Internal("spool", err))
		return
	}
	if len(body) > booth.MaxUpload {
		s.fail(c, fault.Oversize(int64(len(body)), booth.MaxUpload))
		return
	}
	if len(body) == 0 {
		s.fail(c, fault.Validationf("spool", "empty payload"))
		return
	}

	queue := c.Query("queue")
	if queue == "" {
		st, err := s.store.Load()
		if err != nil {
			s.fail(c, err)
			return
		}
		queue = st.Printer(s.booth.Printer())
	}

	if err := s.spooler.Spool(c.Request.Context(), queue, body); err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, spool.SpoolResponse{Status: "ok", Bytes: len(body)})
}
