package web

import "html/template"

// compiledTemplate is parsed at init time to fail fast on template errors.
var compiledTemplate *template.Template

func init() {
	compiledTemplate = template.Must(template.New("page").Parse(pageTemplate))
}

type pageData struct {
	Accept     string
	Field      string
	SupportURL string
	Info       string
	Success    string
	Warnings   []string
	Errors     []string
	Result     *resultView
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Reference File Merger</title>
<style>
  body { font-family: system-ui, sans-serif; max-width: 46rem; margin: 2rem auto; padding: 0 1rem; color: #262730; }
  details { background: #f0f2f6; border-radius: 10px; padding: 0.75rem 1rem; margin: 1rem 0; }
  .msg { border-radius: 6px; padding: 0.6rem 0.9rem; margin: 0.5rem 0; }
  .info { background: #e8f0fe; }
  .warning { background: #fff8e1; }
  .error { background: #fdecea; }
  .success { background: #e6f4ea; }
  .downloads a { display: inline-block; margin: 0.4rem 0.6rem 0.4rem 0; padding: 0.5rem 0.9rem; border: 1px solid #ccc; border-radius: 6px; text-decoration: none; color: inherit; }
  table { border-collapse: collapse; margin: 0.5rem 0; }
  td, th { padding: 0.2rem 0.8rem; text-align: right; }
</style>
</head>
<body>
<h1>Reference File Merger</h1>
<p>Upload .ris and .enw files to merge them into single output files without duplicates.</p>

<details id="about">
  <summary>Click here to learn about this app</summary>
  <p>This app allows you to upload multiple <code>.ris</code> and <code>.enw</code> files and merge them into single output files, avoiding duplicates.</p>
  <ul>
    <li><strong>Supported Formats</strong>: RIS (.ris) and EndNote (.enw) files.</li>
    <li><strong>Output Files</strong>: You can download merged RIS and ENW files.</li>
    <li><strong>Preservation</strong>: The original case and formatting of the data are preserved for compatibility with reference management tools like EndNote.</li>
  </ul>
</details>

<form method="post" action="/merge" enctype="multipart/form-data">
  <label for="files">Upload .ris and .enw files</label>
  <input id="files" type="file" name="{{.Field}}" accept="{{.Accept}}" multiple>
  <button type="submit">Merge</button>
</form>

{{with .Info}}<div class="msg info">{{.}}</div>{{end}}
{{range .Errors}}<div class="msg error">{{.}}</div>{{end}}
{{range .Warnings}}<div class="msg warning">{{.}}</div>{{end}}

{{with .Result}}
<section id="result">
  <table>
    <tr><th></th><th>files</th><th>unique</th><th>duplicates</th></tr>
    <tr><th>RIS</th><td>{{.Stats.RIS.Files}}</td><td>{{.Stats.RIS.Unique}}</td><td>{{.Stats.RIS.Duplicates}}</td></tr>
    <tr><th>ENW</th><td>{{.Stats.ENW.Files}}</td><td>{{.Stats.ENW.Unique}}</td><td>{{.Stats.ENW.Duplicates}}</td></tr>
  </table>
  <p>Comparison: {{.Mode}}</p>
  <div class="downloads">
  {{range .Downloads}}<a class="download" href="{{.Href}}" download="{{.Name}}" type="{{.MediaType}}" data-size="{{.Size}}">{{.Label}}</a>
  {{end}}</div>
</section>
{{end}}
{{with .Success}}<div class="msg success">{{.}}</div>{{end}}

{{with .SupportURL}}
<details id="support">
  <summary>Support Our Research</summary>
  <h3>Your Support Makes a Difference!</h3>
  <p>Your contribution helps us continue developing free tools for the research community.</p>
  <p>Every donation, no matter how small, fuels our research journey!</p>
  <p><a href="{{.}}" target="_blank" rel="noopener">Support our Research</a></p>
  <p class="notice">A small donation from you can fuel our research journey, turning ideas into breakthroughs that can change lives!</p>
</details>
{{end}}
</body>
</html>
`
