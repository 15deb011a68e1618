package mcpserver

// DocumentFormatContract describes the portable calendar document shape and
// the day-entry field contract that MCP consumers should follow.
const DocumentFormatContract = `# Pauta Calendar Document Format

The portable document is the JSON serialization of the calendar state tree.
It carries **references only** — attachment bytes live in the local media
store and never travel with an export.

## Shape

` + "```" + `json
{
  "start": "2024-01-01",
  "days": [
    {
      "id": "2024-01-01",
      "date": "2024-01-01",
      "programar": false,
      "estado": "En proceso",
      "pilar": "Educación",
      "contenido": "",
      "proyecto": "",
      "documento": "Imagen",
      "media": [ { "id": "…", "name": "cover.png", "type": "image/png" } ],
      "copy": "",
      "cta": "",
      "hashtags": "",
      "red": "Instagram",
      "hora": "",
      "alcance": "",
      "interaccion": "",
      "notas": ""
    }
  ]
}
` + "```" + `

## Rules

1. ` + "`" + `start` + "`" + ` is always a Monday in ` + "`" + `YYYY-MM-DD` + "`" + ` form.
2. ` + "`" + `days` + "`" + ` holds exactly 14 consecutive entries; ` + "`" + `days[i].date` + "`" + ` is
   ` + "`" + `start + i` + "`" + ` days, and ` + "`" + `id` + "`" + ` always equals ` + "`" + `date` + "`" + `.
3. Select fields take one of a fixed set:
   - ` + "`" + `estado` + "`" + `: En proceso, Trabajando, Publicado
   - ` + "`" + `pilar` + "`" + `: Educación, Entretenimiento, Promocional o Venta,
     Posicionamiento de marca, Interacción, Noticias o Novedades
   - ` + "`" + `documento` + "`" + `: Imagen, Vídeo, Carrusel, Stories, Otro
   - ` + "`" + `red` + "`" + `: Instagram, TikTok, LinkedIn, Pinterest, Facebook, Web / Blog
4. ` + "`" + `programar` + "`" + ` is a boolean; ` + "`" + `hora` + "`" + ` is ` + "`" + `HH:MM` + "`" + ` or empty;
   ` + "`" + `alcance` + "`" + ` and ` + "`" + `interaccion` + "`" + ` are numeric metrics stored as text.
5. Each ` + "`" + `media` + "`" + ` element is a pointer into the media store. After an
   import the referenced blobs may not exist locally — a missing blob renders
   as absent and is never an error.
`
