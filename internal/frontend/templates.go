package frontend

import "html/template"

// The portal renders three server-side pages: the login form (optionally
// carrying a verification challenge), the success page, and the block page.

const baseStyle = `
<style>
  body {
    margin: 0;
    min-height: 100vh;
    font-family: system-ui, -apple-system, "Segoe UI", sans-serif;
    background: linear-gradient(135deg, #1e293b, #0f172a 60%, #020617);
    color: #e5e7eb;
    display: flex;
    align-items: center;
    justify-content: center;
    padding: 24px;
  }
  .card {
    width: 100%;
    max-width: 420px;
    background: rgba(15, 23, 42, 0.9);
    border: 1px solid rgba(148, 163, 184, 0.35);
    border-radius: 18px;
    padding: 28px 26px;
    box-shadow: 0 24px 60px rgba(15, 23, 42, 0.9);
  }
  h1 { margin: 0 0 18px; font-size: 1.5rem; }
  label { display: block; margin: 12px 0 4px; color: #9ca3af; font-size: 0.85rem; }
  input {
    width: 100%;
    padding: 10px 12px;
    border-radius: 10px;
    border: 1px solid rgba(148, 163, 184, 0.35);
    background: rgba(2, 6, 23, 0.7);
    color: #e5e7eb;
    font-size: 0.95rem;
    box-sizing: border-box;
  }
  button {
    margin-top: 18px;
    width: 100%;
    padding: 11px;
    border: none;
    border-radius: 10px;
    background: #0ea5e9;
    color: #f8fafc;
    font-size: 1rem;
    cursor: pointer;
  }
  .message { margin: 14px 0 0; padding: 10px 12px; border-radius: 10px;
    background: rgba(248, 113, 113, 0.15); color: #f97373; font-size: 0.9rem; }
  .challenge { margin: 14px 0 0; padding: 10px 12px; border-radius: 10px;
    background: rgba(56, 189, 248, 0.16); color: #38bdf8; font-size: 0.9rem; }
</style>
`

var loginTemplate = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html>
<head><title>Sign in</title>` + baseStyle + `</head>
<body>
  <div class="card">
    <h1>Sign in</h1>
    {{if .Challenge}}
    <p class="challenge">Suspicious login pattern detected. Please solve the verification challenge.</p>
    {{end}}
    {{if .Message}}
    <p class="message">{{.Message}}</p>
    {{end}}
    <form method="POST" action="/login">
      <label for="username">Username</label>
      <input id="username" name="username" value="{{.Username}}" autocomplete="username">
      <label for="password">Password</label>
      <input id="password" name="password" type="password" autocomplete="current-password">
      {{if .Challenge}}
      <label for="challenge_answer">{{.Question}}</label>
      <input id="challenge_answer" name="challenge_answer" autocomplete="off" placeholder="{{.Question}}">
      <input type="hidden" name="challenge_token" value="{{.Token}}">
      {{end}}
      <button type="submit">Sign in</button>
    </form>
  </div>
</body>
</html>`))

var successTemplate = template.Must(template.New("success").Parse(`<!DOCTYPE html>
<html>
<head><title>Welcome</title>` + baseStyle + `</head>
<body>
  <div class="card">
    <h1>Welcome, {{.Username}}</h1>
    <p>You have successfully authenticated.</p>
  </div>
</body>
</html>`))

var blockTemplate = template.Must(template.New("block").Parse(`<!DOCTYPE html>
<html>
<head><title>Access blocked</title>` + baseStyle + `</head>
<body>
  <div class="card">
    <h1>Access temporarily blocked</h1>
    <p>Too many suspicious login attempts were observed from your address.
    Please try again later or contact support.</p>
  </div>
</body>
</html>`))

type loginPageData struct {
	Username  string
	Message   string
	Challenge bool
	Question  string
	Token     string
}
