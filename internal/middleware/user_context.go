package middleware

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// UserHeader carries the user id set by the authenticating proxy in front
// of this service.
const UserHeader = "X-User-ID"

const (
	sessionUserID  = "user_id"
	sessionProject = "active_project_id"
	contextKey     = "SessionContext"
)

// SessionContext is the per-request view of the session.
type SessionContext struct {
	UserID          int
	ActiveProjectID int
}

// LoadSession refreshes the session from the identity header and places a
// SessionContext on the request.
func LoadSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)

		if raw := strings.TrimSpace(c.GetHeader(UserHeader)); raw != "" {
			if uid, err := strconv.Atoi(raw); err == nil && uid > 0 {
				if cur, _ := sess.Get(sessionUserID).(int); cur != uid {
					sess.Set(sessionUserID, uid)
					// a different user never inherits the previous project
					sess.Delete(sessionProject)
					if err := sess.Save(); err != nil {
						// the request still runs as uid
						_ = c.Error(fmt.Errorf("save session for user %d: %w", uid, err))
					}
				}
			}
		}

		sc := SessionContext{}
		sc.UserID, _ = sess.Get(sessionUserID).(int)
		sc.ActiveProjectID, _ = sess.Get(sessionProject).(int)
		c.Set(contextKey, sc)

		c.Next()
	}
}

// Session returns the context LoadSession stored.
func Session(c *gin.Context) SessionContext {
	if v, ok := c.Get(contextKey); ok {
		if sc, ok := v.(SessionContext); ok {
			return sc
		}
	}
	return SessionContext{}
}

// SetActiveProject switches the project the following requests work in.
// Any unfinished defect draft belongs to the old project and is dropped.
func SetActiveProject(c *gin.Context, projectID int) error {
	sess := sessions.Default(c)
	sess.Set(sessionProject, projectID)
	sess.Delete(sessionDraft)
	if err := sess.Save(); err != nil {
		return err
	}
	sc := Session(c)
	sc.ActiveProjectID = projectID
	c.Set(contextKey, sc)
	return nil
}
