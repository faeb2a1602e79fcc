package template

// StyleCSS is the stylesheet of EPUB exports.
const StyleCSS = `
body > div {
  margin: 0 auto;
  padding: 1em 1.2em;
  line-height: 1.5;
  color: #1d1d1d;
}

h1 {
  text-align: center;
  font-size: 1.4em;
  margin: 1.5em auto 1em;
}

p {
  margin: 0 0 0.9em;
}

hr {
  border: none;
  border-bottom: 1px solid #d0d0d0;
  margin: 1.5em 25%;
}

blockquote {
  margin: 1em 2em;
  font-style: italic;
}

.byline,
.meta {
  text-align: center;
}

.meta {
  font-size: 0.85em;
  color: #666;
}

.summary {
  margin-top: 2em;
  border-top: 1px solid #d0d0d0;
  padding-top: 1em;
}

nav#toc ol {
  list-style: none;
  padding: 0;
}

img {
  max-width: 90%;
  display: block;
  margin: 1em auto;
}
`
