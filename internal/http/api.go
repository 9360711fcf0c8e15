package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"sharestuff/internal/auth"
	"sharestuff/internal/avatar"
	"sharestuff/internal/domain"
	"sharestuff/internal/service"
	"sharestuff/internal/session"
)

const defaultAvatarURL = "/static/images/default.png"

// AvatarWarmer renders avatars ahead of the first request.
type AvatarWarmer interface {
	Enqueue(username string) bool
}

// Config carries everything the HTTP layer needs.
type Config struct {
	AppName    string
	PostNoun   string
	Users      service.UserService
	Posts      service.PostService
	Likes      service.LikeService
	Sessions   session.Store
	SessionTTL time.Duration
	Identity   auth.Resolver
	Tokens     *auth.TokenIssuer // nil disables /api/token
	Avatars    *avatar.Service
	Warmer     AvatarWarmer
	Metrics    bool
	Logger     *logrus.Logger
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	appName    string
	postNoun   string
	users      service.UserService
	posts      service.PostService
	likes      service.LikeService
	sessions   session.Store
	sessionTTL time.Duration
	identity   auth.Resolver
	tokens     *auth.TokenIssuer
	avatars    *avatar.Service
	warmer     AvatarWarmer
	metrics    bool
	logger     *logrus.Logger
}

func NewHandler(cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.AppName == "" {
		cfg.AppName = "ShareStuff"
	}
	if cfg.PostNoun == "" {
		cfg.PostNoun = "Post"
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.Identity == nil {
		cfg.Identity = auth.SessionResolver{Sessions: cfg.Sessions}
	}
	return &Handler{
		appName:    cfg.AppName,
		postNoun:   cfg.PostNoun,
		users:      cfg.Users,
		posts:      cfg.Posts,
		likes:      cfg.Likes,
		sessions:   cfg.Sessions,
		sessionTTL: cfg.SessionTTL,
		identity:   cfg.Identity,
		tokens:     cfg.Tokens,
		avatars:    cfg.Avatars,
		warmer:     cfg.Warmer,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) error {
	tmpl, err := parseTemplates()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	router.SetHTMLTemplate(tmpl)

	router.Use(requestLogger(h.logger), h.identify())
	router.StaticFS("/static", http.FS(staticFiles()))

	router.GET("/", h.home)
	router.GET("/post/:id", h.showPost)
	router.GET("/register", h.registerForm)
	router.GET("/login", h.loginForm)
	router.GET("/error", h.errorPage)
	router.POST("/register", h.register)
	router.POST("/login", h.login)
	router.GET("/logout", h.logout)
	router.GET("/avatar/:username", h.avatar)
	router.GET("/profile", requireLogin(), h.profile)

	router.POST("/posts", h.createPost)
	router.POST("/like/:id", requireAPIAuth(), h.toggleLike)
	router.POST("/delete/:id", requireAPIAuth(), h.deletePost)

	if h.tokens != nil {
		router.POST("/api/token", h.issueToken)
	}
	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})
	if h.metrics {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	return nil
}

// page builds the template data shared by every page.
func (h *Handler) page(c *gin.Context, extra gin.H) gin.H {
	data := gin.H{
		"AppName":       h.appName,
		"CopyrightYear": time.Now().Year(),
		"PostNoun":      h.postNoun,
		"LoggedIn":      false,
		"UserID":        "",
		"Username":      "",
		"AvatarURL":     defaultAvatarURL,
	}

	id := identityOf(c)
	if !id.Anonymous() {
		if user, err := h.users.GetByID(c.Request.Context(), id.UserID); err == nil {
			data["LoggedIn"] = true
			data["UserID"] = user.ID
			data["Username"] = user.Username
			data["AvatarURL"] = avatarURLFor(*user)
		}
	}

	for k, v := range extra {
		data[k] = v
	}
	return data
}

func (h *Handler) renderError(c *gin.Context, status int, message string) {
	c.HTML(status, "error", h.page(c, gin.H{"Message": message}))
}

func (h *Handler) home(c *gin.Context) {
	ctx := c.Request.Context()
	who := identityOf(c)

	posts, err := h.posts.List(ctx)
	if err != nil {
		h.logger.Errorf("list posts: %v", err)
		h.renderError(c, http.StatusInternalServerError, "Could not load posts.")
		return
	}
	liked, err := h.likes.LikedPosts(ctx, who)
	if err != nil {
		h.logger.Errorf("liked posts: %v", err)
		liked = map[int64]bool{}
	}

	c.HTML(http.StatusOK, "home", h.page(c, gin.H{
		"Posts": lo.Map(posts, func(p domain.Post, _ int) postView {
			return toPostView(p, who, liked)
		}),
	}))
}

func (h *Handler) showPost(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		h.renderError(c, http.StatusNotFound, "Post not found.")
		return
	}

	ctx := c.Request.Context()
	who := identityOf(c)
	post, err := h.posts.Get(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			h.renderError(c, http.StatusNotFound, "Post not found.")
			return
		}
		h.logger.Errorf("get post %d: %v", id, err)
		h.renderError(c, http.StatusInternalServerError, "Could not load post.")
		return
	}
	liked, err := h.likes.LikedPosts(ctx, who)
	if err != nil {
		liked = map[int64]bool{}
	}

	c.HTML(http.StatusOK, "post", h.page(c, gin.H{"Post": toPostView(*post, who, liked)}))
}

func (h *Handler) registerForm(c *gin.Context) {
	c.HTML(http.StatusOK, "loginRegister", h.page(c, gin.H{"RegError": c.Query("error")}))
}

func (h *Handler) loginForm(c *gin.Context) {
	c.HTML(http.StatusOK, "loginRegister", h.page(c, gin.H{"LoginError": c.Query("error")}))
}

func (h *Handler) errorPage(c *gin.Context) {
	h.renderError(c, http.StatusOK, "")
}

func (h *Handler) register(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	user, err := h.users.Register(c.Request.Context(), username, password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserAlreadyExists):
			c.Redirect(http.StatusFound, "/register?error=Username+already+exists")
		case errors.Is(err, service.ErrInvalidInput):
			c.Redirect(http.StatusFound, "/register?error="+url.QueryEscape(err.Error()))
		default:
			h.logger.Errorf("register %q: %v", username, err)
			c.Redirect(http.StatusFound, "/register?error=Registration+failed")
		}
		return
	}

	h.logger.WithField("user_id", user.ID).Infof("created account for %s", user.Username)
	if h.warmer != nil {
		h.warmer.Enqueue(user.Username)
	}
	c.Redirect(http.StatusFound, "/login")
}

func (h *Handler) login(c *gin.Context) {
	ctx := c.Request.Context()
	username := c.PostForm("username")
	password := c.PostForm("password")

	user, err := h.users.Authenticate(ctx, username, password)
	if err != nil {
		if !errors.Is(err, service.ErrInvalidCredentials) {
			h.logger.Errorf("authenticate %q: %v", username, err)
		}
		c.Redirect(http.StatusFound, "/login?error=Invalid+credentials")
		return
	}

	if old, err := c.Cookie(auth.CookieName); err == nil && old != "" {
		h.sessions.Destroy(ctx, old)
	}
	sess, err := h.sessions.Create(ctx, user.ID)
	if err != nil {
		h.logger.Errorf("create session: %v", err)
		c.Redirect(http.StatusFound, "/login?error=Login+failed")
		return
	}

	h.setSessionCookie(c, sess.Token, int(h.sessionTTL.Seconds()))
	h.logger.WithField("user_id", user.ID).Infof("%s logged in", user.Username)
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) logout(c *gin.Context) {
	if token, err := c.Cookie(auth.CookieName); err == nil && token != "" {
		h.sessions.Destroy(c.Request.Context(), token)
	}
	h.setSessionCookie(c, "", -1)
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, value, maxAge, "/", "", false, true)
}

func (h *Handler) profile(c *gin.Context) {
	who := identityOf(c)
	profile, err := h.posts.Profile(c.Request.Context(), who)
	if err != nil {
		if errors.Is(err, service.ErrUnauthenticated) {
			c.Redirect(http.StatusFound, "/login")
			return
		}
		h.logger.Errorf("profile for user %d: %v", who.UserID, err)
		h.renderError(c, http.StatusInternalServerError, "Could not load profile.")
		return
	}

	liked, err := h.likes.LikedPosts(c.Request.Context(), who)
	if err != nil {
		liked = map[int64]bool{}
	}
	posts := lo.Map(profile.Posts, func(p service.ProfilePost, _ int) postView {
		v := toPostView(p.Post, who, liked)
		v.CanEdit = p.CanEdit
		return v
	})

	c.HTML(http.StatusOK, "profile", h.page(c, gin.H{
		"Profile": toProfileView(profile.User),
		"Posts":   posts,
	}))
}

type createPostForm struct {
	Title   string `form:"title" json:"title"`
	Content string `form:"content" json:"content"`
}

func (h *Handler) createPost(c *gin.Context) {
	if identityOf(c).Anonymous() {
		c.String(http.StatusForbidden, "You must be logged in to post.")
		return
	}

	var form createPostForm
	if err := c.ShouldBind(&form); err != nil {
		c.String(http.StatusBadRequest, "Invalid post.")
		return
	}

	_, err := h.posts.Create(c.Request.Context(), identityOf(c), form.Title, form.Content)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnauthenticated):
			c.String(http.StatusForbidden, "You must be logged in to post.")
		case errors.Is(err, service.ErrInvalidInput):
			c.String(http.StatusBadRequest, err.Error())
		default:
			h.logger.Errorf("create post: %v", err)
			c.String(http.StatusInternalServerError, "Could not create post.")
		}
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) toggleLike(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Post not found"})
		return
	}

	res, err := h.likes.Toggle(c.Request.Context(), identityOf(c), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnauthenticated):
			c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "You must be logged in to like posts."})
		case errors.Is(err, service.ErrPostNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Post not found"})
		case errors.Is(err, service.ErrSelfLikeRejected):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "You cannot like your own post", "likes": res.Likes})
		default:
			h.logger.Errorf("toggle like on post %d: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Could not update likes"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "likes": res.Likes, "liked": res.Liked})
}

func (h *Handler) deletePost(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": service.ErrNotFoundOrForbidden.Error()})
		return
	}

	if err := h.posts.Delete(c.Request.Context(), identityOf(c), id); err != nil {
		switch {
		case errors.Is(err, service.ErrUnauthenticated):
			c.JSON(http.StatusForbidden, gin.H{"message": "You must be logged in to delete posts."})
		case errors.Is(err, service.ErrNotFoundOrForbidden):
			c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
		default:
			h.logger.Errorf("delete post %d: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not delete post"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

func (h *Handler) avatar(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	data, err := h.avatars.Avatar(ctx, c.Param("username"))
	if err != nil {
		if errors.Is(err, avatar.ErrUserNotFound) {
			c.String(http.StatusNotFound, "User not found")
			return
		}
		h.logger.Errorf("avatar for %q: %v", c.Param("username"), err)
		c.String(http.StatusInternalServerError, "Could not load avatar")
		return
	}
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "image/png", data)
}

type tokenRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) issueToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	token, expires, err := h.tokens.Issue(user.ID, user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "expires_at": expires.Format(time.RFC3339)})
}

func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
