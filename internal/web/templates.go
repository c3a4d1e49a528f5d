package web

import (
    "bytes"
    "html/template"
)

type templates struct {
    base  *template.Template
    game  *template.Template
    board *template.Template
    index *template.Template
}

func loadTemplates() *templates {
    base := template.Must(template.New("base").Parse(`<!doctype html><html><head>
<meta charset="utf-8"/>
<title>Super Tic-Tac-Toe</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org/dist/ext/sse.js"></script>
<style>
table.meta { border-collapse: collapse; }
td.sub { border: 2px solid #999; padding: 4px; }
td.sub.active { border-color: #2a2; }
td.sub.won-X { background: #fdd; }
td.sub.won-O { background: #ddf; }
button.cell { width: 2em; height: 2em; }
button.suggested { outline: 2px solid #2a2; }
span.last { font-weight: bold; text-decoration: underline; }
</style>
</head><body>{{template "content" .}}</body></html>`))
    // Define the board template within the same set so game can include it
    template.Must(base.New("board").Parse(boardTemplate))
    index := template.Must(template.Must(base.Clone()).New("content").Parse(indexTemplate))
    game := template.Must(template.Must(base.Clone()).New("content").Parse(`
<h1>Super Tic-Tac-Toe</h1>
<div hx-ext="sse" sse-connect="/match/{{.ID}}/events">
  <div sse-swap="board">{{template "board" .}}</div>
</div>
<p><a href="/">New match</a></p>`))
    // Standalone board template used for fragment rendering
    board := template.Must(template.New("board_only").Parse(boardTemplate))
    return &templates{base: base, game: game, board: board, index: index}
}

func renderTemplate(t *template.Template, name string, data any) []byte {
    var buf bytes.Buffer
    if name == "" {
        _ = t.Execute(&buf, data)
    } else {
        _ = t.ExecuteTemplate(&buf, name, data)
    }
    return buf.Bytes()
}

const indexTemplate = `<h1>Super Tic-Tac-Toe</h1>
<form action="/match" method="post">
  <select name="mode">
    <option value="bot-o">Play X against the bot</option>
    <option value="bot-x">Play O against the bot</option>
    <option value="hotseat">Two players, one screen</option>
  </select>
  <button>Create</button>
</form>`

const boardTemplate = `
<div id="board">
  {{if .Error}}
  <div class="alert">{{.Error}}</div>
  {{end}}
  <p class="status">{{.Status}}</p>
  {{/* 3x3 subgrids of 3x3 cells */}}
  <table class="meta">
  {{range .Rows}}
    <tr>
    {{range .}}
      <td class="sub{{if .Active}} active{{end}}{{if .Winner}} won-{{.Winner}}{{end}}">
        <table class="cells">
        {{range .Rows}}
          <tr>
          {{range .}}
            <td>
            {{if .Playable}}
              <form hx-post="/match/{{$.ID}}/play" hx-target="#board" hx-swap="outerHTML" action="/match/{{$.ID}}/play" method="post">
                <input type="hidden" name="outer" value="{{.Outer}}">
                <input type="hidden" name="inner" value="{{.Inner}}">
                <button type="submit" class="cell{{if .Suggested}} suggested{{end}}">{{.Mark}}</button>
              </form>
            {{else}}
              <span class="cell{{if .Last}} last{{end}}">{{.Mark}}</span>
            {{end}}
            </td>
          {{end}}
          </tr>
        {{end}}
        </table>
      </td>
    {{end}}
    </tr>
  {{end}}
  </table>
  <form hx-post="/match/{{.ID}}/undo" hx-target="#board" hx-swap="outerHTML" action="/match/{{.ID}}/undo" method="post"><button>Undo</button></form>
  <form hx-get="/match/{{.ID}}/suggest" hx-target="#board" hx-swap="outerHTML" action="/match/{{.ID}}/suggest" method="get"><button>Suggest</button></form>
  {{if .Suggestions}}
  <ol class="suggestions">
    {{range .Suggestions}}<li{{if .Best}} class="best"{{end}}>({{.Outer}},{{.Inner}}): {{.Score}}</li>{{end}}
  </ol>
  <p class="search-stats">depth {{.Depth}}, {{.Nodes}} nodes</p>
  {{end}}
</div>
`
