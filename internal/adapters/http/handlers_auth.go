package web

import (
	"context"
	"net/http"

	"congregation/internal/adapters/http/middleware"
	"congregation/internal/application/orchestrators"
	"congregation/internal/application/session"
	accountDomain "congregation/internal/domain/account"
)

// MsgCheckEmail is shown after sign-up until the confirmation link is followed.
const MsgCheckEmail = "Cadastro realizado! Verifique seu e-mail para confirmar a conta."

func signupDeps() orchestrators.SignupDeps {
	return orchestrators.SignupDeps{
		AccountStore: stores.AccountStore,
		ProfileStore: stores.ProfileStore,
		Sender:       emailSender,
		BaseURL:      appConfig.BaseURL,
		GenerateID:   generateID,
		Now:          timeNow,
	}
}

// startSession creates the server session for a successful login and tells
// every listener on the device that it is now signed in.
func startSession(w http.ResponseWriter, r *http.Request, result orchestrators.LoginResult) (middleware.Session, error) {
	device := middleware.DeviceFromContext(r.Context())
	token, err := sessions.Create(result.AccountID, result.Email, result.Role, device)
	if err != nil {
		return middleware.Session{}, err
	}
	sess, _ := sessions.Get(token)
	middleware.SetSessionCookie(w, token, appConfig.SessionLifetime)
	notifier.Publish(device, session.AuthEvent{
		Type:     session.SignedIn,
		Identity: identityOf(sess, true),
	})
	return sess, nil
}

// endSession signs the device out. The local session is cleared even when
// revocation does not succeed.
func endSession(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	sess, _ := middleware.GetSessionFromContext(ctx)
	err := orchestrators.ExecuteLogout(ctx, orchestrators.LogoutInput{
		Token:     middleware.SessionToken(r, tokens),
		Device:    middleware.DeviceFromContext(ctx),
		AccountID: sess.AccountID,
		Confirmed: true,
	}, orchestrators.LogoutDeps{Sessions: sessions, Events: notifier})
	if err != nil {
		return err
	}
	middleware.ClearSessionCookie(w)
	return nil
}

// --- JSON API ---

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	AccountID   string `json:"account_id"`
	Email       string `json:"email"`
	Role        string `json:"role"`
}

// handleAPISignup handles POST /api/auth/signup
func handleAPISignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	result, err := orchestrators.ExecuteSignup(r.Context(), orchestrators.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	}, signupDeps())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"account_id": result.AccountID,
		"email":      result.Email,
		"message":    MsgCheckEmail,
	})
}

// handleAPILogin handles POST /api/auth/login
func handleAPILogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	result, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	}, orchestrators.LoginDeps{AccountStore: stores.AccountStore})
	if err != nil {
		respondError(w, err)
		return
	}
	sess, err := startSession(w, r, result)
	if err != nil {
		internalError(w, err)
		return
	}
	access, err := tokens.Issue(sess)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: access,
		TokenType:   "Bearer",
		ExpiresIn:   int(appConfig.JWTTTL.Seconds()),
		AccountID:   result.AccountID,
		Email:       result.Email,
		Role:        result.Role,
	})
}

// handleAPILogout handles POST /api/auth/logout. The client asks for
// confirmation before calling it.
func handleAPILogout(w http.ResponseWriter, r *http.Request) {
	if err := endSession(r.Context(), w, r); err != nil {
		internalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleConfirm handles GET /api/auth/confirm?token= from the emailed link.
func handleConfirm(w http.ResponseWriter, r *http.Request) {
	acct, err := orchestrators.ExecuteConfirmAccount(r.Context(), r.URL.Query().Get("token"),
		orchestrators.ConfirmAccountDeps{AccountStore: stores.AccountStore, Now: timeNow})
	if isHTMLRequest(r) {
		data := map[string]any{"Confirmed": err == nil}
		if err != nil {
			data["Error"] = userMessage(err)
		}
		renderTemplate(w, r, "confirm.html", data)
		return
	}
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"account_id": acct.ID, "status": acct.Status})
}

// --- Pages ---

func handleLoginPage(w http.ResponseWriter, r *http.Request) {
	renderTemplate(w, r, "login.html", map[string]any{})
}

// handleLoginSubmit handles POST /login
func handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	email := r.FormValue("email")
	result, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Email:    email,
		Password: r.FormValue("password"),
	}, orchestrators.LoginDeps{AccountStore: stores.AccountStore})
	if err != nil {
		renderTemplate(w, r, "login.html", map[string]any{"Email": email, "Error": userMessage(err)})
		return
	}
	if _, err := startSession(w, r, result); err != nil {
		internalError(w, err)
		return
	}
	http.Redirect(w, r, middleware.HomePath, http.StatusSeeOther)
}

func handleSignupPage(w http.ResponseWriter, r *http.Request) {
	renderTemplate(w, r, "signup.html", map[string]any{})
}

// handleSignupSubmit handles POST /signup
func handleSignupSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	name, email := r.FormValue("name"), r.FormValue("email")
	if name == "" || email == "" || r.FormValue("password") == "" {
		renderTemplate(w, r, "signup.html", map[string]any{
			"Name": name, "Email": email,
			"Error": accountDomain.TranslateError(accountDomain.ErrMissingCredentials),
		})
		return
	}
	_, err := orchestrators.ExecuteSignup(r.Context(), orchestrators.SignupInput{
		Email:    email,
		Password: r.FormValue("password"),
		Name:     name,
	}, signupDeps())
	if err != nil {
		renderTemplate(w, r, "signup.html", map[string]any{"Name": name, "Email": email, "Error": userMessage(err)})
		return
	}
	renderTemplate(w, r, "signup.html", map[string]any{"Message": MsgCheckEmail})
}

// handleLogoutPage asks the member to confirm signing out.
func handleLogoutPage(w http.ResponseWriter, r *http.Request) {
	renderTemplate(w, r, "logout.html", map[string]any{})
}

// handleLogoutSubmit handles POST /logout. Without confirm=yes it returns to the profile.
func handleLogoutSubmit(w http.ResponseWriter, r *http.Request) {
	if r.FormValue("confirm") != "yes" {
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}
	if err := endSession(r.Context(), w, r); err != nil {
		internalError(w, err)
		return
	}
	http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
}
