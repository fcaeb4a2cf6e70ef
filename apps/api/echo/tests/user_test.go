package tests

import (
	"net/http"
	"net/url"
	"regexp"
	"testing"
	"time"

	. "github.com/trezcool/coursedash/apps/api/echo"
	"github.com/trezcool/coursedash/core/user"
	"github.com/trezcool/coursedash/tests"
)

func Test_userApi_login(t *testing.T) {
	app := newTestApp(t)

	testutil.CreateUser(t, app.UserRepo, "Hero", "hero", "hero@test.cd", "LolC@t123", []string{user.RoleStudent}, true)
	testutil.CreateUser(t, app.UserRepo, "N Dog", "ndog", "ndog@test.cd", "LolC@t123", []string{user.RoleStudent}, false)

	reqMsg := "this field is required"
	tests := []httpTest{
		{
			name: "required fields", body: marchallObj(t, LoginRequest{}), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, LoginRequest{Username: reqMsg, Password: reqMsg}),
		},
		{
			name: "unknown user", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, LoginRequest{Username: "nobody", Password: "LolC@t123"}),
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, LoginRequest{Username: "hero", Password: "lol"}),
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "deactivated account", wantCode: http.StatusForbidden,
			body:     marchallObj(t, LoginRequest{Username: "ndog@test.cd", Password: "LolC@t123"}),
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.serve(http.MethodPost, "/v1/users/login", "", tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("valid credentials", func(t *testing.T) {
		for _, uname := range []string{"hero", "hero@test.cd"} {
			rec := app.serve(http.MethodPost, "/v1/users/login", "", marchallObj(t, LoginRequest{Username: uname, Password: "LolC@t123"}))
			checkCode(t, rec, http.StatusOK)

			var resp LoginResponse
			unmarshal(t, rec, &resp)
			if resp.Token == "" {
				t.Fatalf("login(%s): empty token", uname)
			}
			// the token authenticates further requests
			checkCode(t, app.serve(http.MethodGet, "/v1/users/me", resp.Token), http.StatusOK)
		}
	})
}

func Test_userApi_refreshToken(t *testing.T) {
	app := newTestApp(t)
	student := testutil.CreateUser(t, app.UserRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	naughty := testutil.CreateUser(t, app.UserRepo, "N Dog", "ndog", "ndog@test.cd", "", []string{user.RoleStudent}, false)

	checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		app.serve(http.MethodPost, "/v1/users/token-refresh", ""))
	checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"})},
		app.serve(http.MethodPost, "/v1/users/token-refresh", app.getToken(t, naughty)))

	rec := app.serve(http.MethodPost, "/v1/users/token-refresh", app.getToken(t, student))
	checkCode(t, rec, http.StatusOK)
	var resp LoginResponse
	unmarshal(t, rec, &resp)
	if resp.Token == "" {
		t.Fatal("refreshToken(): empty token")
	}
}

func Test_userApi_retrieveMe(t *testing.T) {
	app := newTestApp(t)
	student := testutil.CreateUser(t, app.UserRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "current user", token: app.getToken(t, student), wantCode: http.StatusOK, wantData: marchallObj(t, student)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, app.serve(http.MethodGet, "/v1/users/me", tt.token))
		})
	}
}

func Test_userApi_queryRoles(t *testing.T) {
	app := newTestApp(t)
	student := testutil.CreateUser(t, app.UserRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	admin := testutil.CreateUser(t, app.UserRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)

	roles := make([]interface{}, 0, len(user.Roles))
	for _, r := range user.Roles {
		roles = append(roles, r)
	}
	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "admin required", token: app.getToken(t, student), wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})},
		{name: "roles", token: app.getToken(t, admin), wantCode: http.StatusOK, wantData: marchallList(t, roles...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, app.serve(http.MethodGet, "/v1/users/roles", tt.token))
		})
	}
}

func Test_userApi_create(t *testing.T) {
	app := newTestApp(t)
	student := testutil.CreateUser(t, app.UserRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	admin := testutil.CreateUser(t, app.UserRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	adminToken := app.getToken(t, admin)

	reqMsg := "this field is required"
	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "admin required", token: app.getToken(t, student), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "required fields", token: adminToken, body: marchallObj(t, user.NewUser{}), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"name":             reqMsg,
				"username":         "one of username or email is required",
				"email":            "one of username or email is required",
				"password":         "password must contain at least 8 characters",
				"password_confirm": reqMsg,
			}),
		},
		{
			name: "password mismatch", token: adminToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.NewUser{Name: "Prof", Username: "prof", Password: "LolC@t123", PasswordConfirm: "lol"}),
			wantData: marchallObj(t, map[string]string{"password_confirm": "password_confirm must be equal to Password"}),
		},
		{
			name: "invalid roles", token: adminToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.NewUser{Name: "Prof", Username: "prof", Password: "LolC@t123", PasswordConfirm: "LolC@t123", Roles: []string{"lol"}}),
			wantData: marchallObj(t, map[string]string{"roles": "invalid roles"}),
		},
		{
			name: "cannot grant a higher role", token: adminToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.NewUser{Name: "Boss", Username: "boss", Password: "LolC@t123", PasswordConfirm: "LolC@t123", Roles: []string{user.RoleAdminOwner}}),
			wantData: marchallObj(t, map[string]string{"roles": "not enough rights to set these roles"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, app.serve(http.MethodPost, "/v1/users/register", tt.token, tt.body))
		})
	}

	t.Run("instructor created", func(t *testing.T) {
		rec := app.serve(http.MethodPost, "/v1/users/register", adminToken, marchallObj(t, user.NewUser{
			Name: "Prof", Username: "prof", Email: "Prof@Test.cd", Password: "LolC@t123", PasswordConfirm: "LolC@t123",
			Roles: []string{user.RoleInstructor},
		}))
		checkCode(t, rec, http.StatusCreated)

		var usr user.User
		unmarshal(t, rec, &usr)
		if usr.ID == "" || usr.Email != "prof@test.cd" || !usr.IsInstructor() {
			t.Errorf("failed! created = %+v", usr)
		}
	})
}

var resetLinkRegex = regexp.MustCompile(`/password-reset/([^/\s]+)/(\S+)`)

func Test_userApi_passwordReset(t *testing.T) {
	app := newTestApp(t)
	testutil.CreateUser(t, app.UserRepo, "Hero", "hero", "hero@test.cd", "LolC@t123", []string{user.RoleStudent}, true)

	reqMsg := "this field is required"
	success := marchallObj(t, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})

	checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"email": reqMsg})},
		app.serve(http.MethodPost, "/v1/users/password-reset", "", marchallObj(t, PasswordResetRequest{})))

	t.Run("unknown email", func(t *testing.T) {
		app.MailSvc.Reset()
		rec := app.serve(http.MethodPost, "/v1/users/password-reset", "", marchallObj(t, PasswordResetRequest{Email: "nobody@test.cd"}))
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: success}, rec)
		if len(app.MailSvc.SentMessages) != 0 {
			t.Errorf("failed! sent = %+v", app.MailSvc.SentMessages)
		}
	})

	app.MailSvc.Reset()
	rec := app.serve(http.MethodPost, "/v1/users/password-reset", "", marchallObj(t, PasswordResetRequest{Email: "Hero@test.cd"}))
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: success}, rec)
	if len(app.MailSvc.SentMessages) != 1 {
		t.Fatalf("failed! sent %d emails; want 1", len(app.MailSvc.SentMessages))
	}
	link := resetLinkRegex.FindStringSubmatch(app.MailSvc.SentMessages[0].TextContent)
	if len(link) != 3 {
		t.Fatalf("failed! no reset link in %q", app.MailSvc.SentMessages[0].TextContent)
	}
	uid, token := link[1], link[2]

	tests := []httpTest{
		{
			name: "required fields", body: marchallObj(t, user.ResetUserPassword{}), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"uid": reqMsg, "token": reqMsg, "password": reqMsg, "password_confirm": reqMsg}),
		},
		{
			name: "invalid token", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{UID: uid, Token: "HE4TS-sig", Password: "Xq7#mPw2zL", PasswordConfirm: "Xq7#mPw2zL"}),
			wantData: marchallObj(t, map[string]string{"token": "invalid token"}),
		},
		{
			name: "valid token", wantCode: http.StatusOK,
			body:     marchallObj(t, user.ResetUserPassword{UID: uid, Token: token, Password: "Xq7#mPw2zL", PasswordConfirm: "Xq7#mPw2zL"}),
			wantData: marchallObj(t, SuccessResponse{Success: "Password has been reset with the new password."}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, app.serve(http.MethodPost, "/v1/users/password-reset-confirm", "", tt.body))
		})
	}

	t.Run("login with the new password", func(t *testing.T) {
		rec := app.serve(http.MethodPost, "/v1/users/login", "", marchallObj(t, LoginRequest{Username: "hero", Password: "Xq7#mPw2zL"}))
		checkCode(t, rec, http.StatusOK)
	})
}

func Test_userApi_query(t *testing.T) {
	app := newTestApp(t)
	now := time.Now()
	admin := testutil.CreateUser(t, app.UserRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true, now.Add(-3*time.Hour))
	prof := testutil.CreateUser(t, app.UserRepo, "Prof", "prof", "prof@test.cd", "", []string{user.RoleInstructor}, true, now.Add(-2*time.Hour))
	hero := testutil.CreateUser(t, app.UserRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true, now.Add(-time.Hour))
	ndog := testutil.CreateUser(t, app.UserRepo, "N Dog", "ndog", "ndog@corp.cd", "", []string{user.RoleStudent}, false, now)
	adminToken := app.getToken(t, admin)

	tests := []struct {
		httpTest
		query url.Values
	}{
		{httpTest: httpTest{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}},
		{httpTest: httpTest{
			name: "admin required", token: app.getToken(t, hero), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		}},
		{httpTest: httpTest{name: "all", token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, admin, prof, hero, ndog)}},
		{
			httpTest: httpTest{name: "students", token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, hero, ndog)},
			query:    url.Values{"role": {user.RoleStudent}},
		},
		{
			httpTest: httpTest{name: "active students by name", token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, hero)},
			query:    url.Values{"role": {user.RoleStudent}, "is_active": {"true"}, "ordering": {"name"}},
		},
		{
			httpTest: httpTest{name: "search", token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, ndog)},
			query:    url.Values{"search": {"CORP"}},
		},
		{
			httpTest: httpTest{name: "no match", token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t)},
			query:    url.Values{"search": {"nobody"}},
		},
		{
			httpTest: httpTest{
				name: "invalid is_active", token: adminToken, wantCode: http.StatusBadRequest,
				wantData: marchallObj(t, map[string]string{"is_active": "must be a boolean"}),
			},
			query: url.Values{"is_active": {"lol"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt.httpTest, app.serve(http.MethodGet, "/v1/users?"+tt.query.Encode(), tt.token))
		})
	}
}

func Test_userApi_retrieve(t *testing.T) {
	app := newTestApp(t)
	admin := testutil.CreateUser(t, app.UserRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	hero := testutil.CreateUser(t, app.UserRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	ndog := testutil.CreateUser(t, app.UserRepo, "N Dog", "ndog", "ndog@test.cd", "", []string{user.RoleStudent}, true)
	notFound := marchallObj(t, httpErr{Error: "not found"})

	tests := []httpTest{
		{name: "auth required", path: "/v1/users/" + hero.ID, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "self", path: "/v1/users/" + hero.ID, token: app.getToken(t, hero), wantCode: http.StatusOK, wantData: marchallObj(t, hero)},
		{name: "someone else", path: "/v1/users/" + hero.ID, token: app.getToken(t, ndog), wantCode: http.StatusNotFound, wantData: notFound},
		{name: "admin", path: "/v1/users/" + hero.ID, token: app.getToken(t, admin), wantCode: http.StatusOK, wantData: marchallObj(t, hero)},
		{name: "unknown", path: "/v1/users/lol", token: app.getToken(t, admin), wantCode: http.StatusNotFound, wantData: notFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, app.serve(http.MethodGet, tt.path, tt.token))
		})
	}
}

func Test_userApi_update(t *testing.T) {
	app := newTestApp(t)
	admin := testutil.CreateUser(t, app.UserRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	hero := testutil.CreateUser(t, app.UserRepo, "Hero", "hero", "hero@test.cd", "LolC@t123", []string{user.RoleStudent}, true)
	ndog := testutil.CreateUser(t, app.UserRepo, "N Dog", "ndog", "ndog@test.cd", "", []string{user.RoleStudent}, true)
	heroToken, adminToken := app.getToken(t, hero), app.getToken(t, admin)
	inactive := false

	tests := []httpTest{
		{
			name: "someone else", path: "/v1/users/" + ndog.ID, token: heroToken, wantCode: http.StatusNotFound,
			body: marchallObj(t, user.UpdateUser{Name: "Lol"}), wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "deactivate self", path: "/v1/users/" + hero.ID, token: heroToken, wantCode: http.StatusForbidden,
			body: marchallObj(t, user.UpdateUser{IsActive: &inactive}), wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "grant own roles", path: "/v1/users/" + hero.ID, token: heroToken, wantCode: http.StatusForbidden,
			body: marchallObj(t, user.UpdateUser{Roles: []string{user.RoleAdmin}}), wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "password mismatch", path: "/v1/users/" + hero.ID, token: heroToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.UpdateUser{Password: "Xq7#mPw2zL", PasswordConfirm: "lol"}),
			wantData: marchallObj(t, map[string]string{"password_confirm": "password_confirm must be equal to Password"}),
		},
		{
			name: "username taken", path: "/v1/users/" + hero.ID, token: adminToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.UpdateUser{Username: "ndog"}),
			wantData: marchallObj(t, map[string]string{"username": user.ErrUserExists.Error()}),
		},
		{
			name: "cannot grant a higher role", path: "/v1/users/" + hero.ID, token: adminToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.UpdateUser{Roles: []string{user.RoleAdminOwner}}),
			wantData: marchallObj(t, map[string]string{"roles": "not enough rights to set these roles"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, app.serve(http.MethodPut, tt.path, tt.token, tt.body))
		})
	}

	t.Run("self", func(t *testing.T) {
		rec := app.serve(http.MethodPut, "/v1/users/"+hero.ID, heroToken, marchallObj(t, user.UpdateUser{Name: "Super Hero"}))
		checkCode(t, rec, http.StatusOK)
		var usr user.User
		unmarshal(t, rec, &usr)
		if usr.Name != "Super Hero" || usr.Username != "hero" || !usr.Active() {
			t.Errorf("failed! updated = %+v", usr)
		}
	})

	t.Run("admin", func(t *testing.T) {
		rec := app.serve(http.MethodPut, "/v1/users/"+ndog.ID, adminToken, marchallObj(t, user.UpdateUser{
			IsActive: &inactive, Roles: []string{user.RoleInstructor},
		}))
		checkCode(t, rec, http.StatusOK)
		var usr user.User
		unmarshal(t, rec, &usr)
		if usr.Active() || !usr.IsInstructor() || usr.IsStudent() {
			t.Errorf("failed! updated = %+v", usr)
		}
	})
}

func Test_userApi_destroy(t *testing.T) {
	app := newTestApp(t)
	admin := testutil.CreateUser(t, app.UserRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	hero := testutil.CreateUser(t, app.UserRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	adminToken := app.getToken(t, admin)
	forbidden := marchallObj(t, httpErr{Error: "permission denied"})

	tests := []httpTest{
		{name: "admin required", path: "/v1/users/" + hero.ID, token: app.getToken(t, hero), wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "not yourself", path: "/v1/users/" + admin.ID, token: adminToken, wantCode: http.StatusForbidden, wantData: forbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, app.serve(http.MethodDelete, tt.path, tt.token))
		})
	}

	checkCode(t, app.serve(http.MethodDelete, "/v1/users/"+hero.ID, adminToken), http.StatusNoContent)
	checkCode(t, app.serve(http.MethodGet, "/v1/users/"+hero.ID, adminToken), http.StatusNotFound)
}

func Test_userApi_destroyMultiple(t *testing.T) {
	app := newTestApp(t)
	admin := testutil.CreateUser(t, app.UserRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	hero := testutil.CreateUser(t, app.UserRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	ndog := testutil.CreateUser(t, app.UserRepo, "N Dog", "ndog", "ndog@test.cd", "", []string{user.RoleStudent}, true)
	adminToken := app.getToken(t, admin)
	forbidden := marchallObj(t, httpErr{Error: "permission denied"})

	ids := func(users ...user.User) string {
		q := url.Values{}
		for _, usr := range users {
			q.Add("id", usr.ID)
		}
		return "/v1/users?" + q.Encode()
	}

	checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: forbidden},
		app.serve(http.MethodDelete, ids(hero), app.getToken(t, hero)))
	checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: forbidden},
		app.serve(http.MethodDelete, ids(hero, admin), adminToken))
	checkCode(t, app.serve(http.MethodDelete, "/v1/users", adminToken), http.StatusNoContent)

	checkCode(t, app.serve(http.MethodDelete, ids(hero, ndog), adminToken), http.StatusNoContent)
	rec := app.serve(http.MethodGet, "/v1/users", adminToken)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t, admin)}, rec)
}
