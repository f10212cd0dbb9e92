package grocery

// keywordGroup maps a set of keywords to the name printed on the list.
// Keywords are normalized the same way as menu lines before matching.
type keywordGroup struct {
	name     string
	keywords []string
}

// Within a category the groups are tried in order, so the more specific
// groups come first.
var keywordTable = map[Category][]keywordGroup{
	Dairy: {
		{"Bebida vegetal", []string{"bebida de soja", "bebida de avena", "bebida de almendra", "leche de soja", "leche de avena", "leche de almendra"}},
		{"Queso fresco", []string{"queso fresco", "queso batido", "queso de burgos"}},
		{"Queso", []string{"queso"}},
		{"Leche", []string{"leche"}},
		{"Yogur", []string{"yogur", "yogurt", "yoghurt"}},
		{"Requesón", []string{"requeson"}},
		{"Kéfir", []string{"kefir"}},
		{"Mantequilla", []string{"mantequilla"}},
		{"Nata", []string{"nata"}},
		{"Cuajada", []string{"cuajada"}},
	},
	Meat: {
		{"Pollo", []string{"pollo"}},
		{"Pavo", []string{"pavo"}},
		{"Ternera", []string{"ternera", "vaca", "buey"}},
		{"Cerdo", []string{"cerdo", "solomillo", "lomo"}},
		{"Jamón serrano", []string{"jamon serrano", "jamon iberico"}},
		{"Jamón cocido", []string{"jamon cocido", "jamon york"}},
		{"Jamón", []string{"jamon"}},
		{"Conejo", []string{"conejo"}},
		{"Cordero", []string{"cordero"}},
		{"Carne picada", []string{"carne picada"}},
		{"Hamburguesas", []string{"hamburguesa"}},
		{"Chorizo", []string{"chorizo"}},
		{"Lacón", []string{"lacon"}},
		{"Panceta", []string{"panceta", "bacon", "beicon"}},
	},
	Fish: {
		{"Salmón", []string{"salmon"}},
		{"Atún", []string{"atun", "bonito"}},
		{"Merluza", []string{"merluza"}},
		{"Bacalao", []string{"bacalao"}},
		{"Sardinas", []string{"sardina"}},
		{"Gambas", []string{"gamba", "langostino"}},
		{"Mejillones", []string{"mejillon"}},
		{"Dorada", []string{"dorada"}},
		{"Lubina", []string{"lubina"}},
		{"Calamares", []string{"calamar"}},
		{"Pulpo", []string{"pulpo"}},
		{"Caballa", []string{"caballa"}},
		{"Boquerones", []string{"boqueron"}},
		{"Pescado blanco", []string{"pescado blanco"}},
		{"Pescado", []string{"pescado"}},
	},
	Fruit: {
		{"Manzanas", []string{"manzana"}},
		{"Plátanos", []string{"platano", "banana"}},
		{"Naranjas", []string{"naranja"}},
		{"Mandarinas", []string{"mandarina"}},
		{"Fresas", []string{"fresa"}},
		{"Peras", []string{"pera"}},
		{"Kiwis", []string{"kiwi"}},
		{"Uvas", []string{"uva"}},
		{"Melón", []string{"melon"}},
		{"Sandía", []string{"sandia"}},
		{"Piña", []string{"pina"}},
		{"Arándanos", []string{"arandano"}},
		{"Frutos rojos", []string{"frutos rojos", "frutos del bosque"}},
		{"Melocotones", []string{"melocoton"}},
		{"Mango", []string{"mango"}},
		{"Limones", []string{"limon"}},
		{"Aguacate", []string{"aguacate"}},
	},
	Vegetable: {
		{"Tomates", []string{"tomate"}},
		{"Lechuga", []string{"lechuga"}},
		{"Espinacas", []string{"espinaca"}},
		{"Brócoli", []string{"brocoli", "brecol"}},
		{"Zanahorias", []string{"zanahoria"}},
		{"Calabacín", []string{"calabacin"}},
		{"Berenjena", []string{"berenjena"}},
		{"Pimientos", []string{"pimiento"}},
		{"Cebolla", []string{"cebolla"}},
		{"Ajo", []string{"ajo"}},
		{"Pepino", []string{"pepino"}},
		{"Judías verdes", []string{"judias verdes"}},
		{"Champiñones", []string{"champinon", "seta"}},
		{"Espárragos", []string{"esparrago"}},
		{"Coliflor", []string{"coliflor"}},
		{"Calabaza", []string{"calabaza"}},
		{"Patatas", []string{"patata"}},
		{"Boniato", []string{"boniato"}},
		{"Canónigos", []string{"canonigo"}},
		{"Rúcula", []string{"rucula"}},
		{"Verduras variadas", []string{"verdura"}},
	},
	Legume: {
		{"Lentejas", []string{"lenteja"}},
		{"Garbanzos", []string{"garbanzo"}},
		{"Alubias", []string{"alubia", "judias blancas", "frijol"}},
		{"Guisantes", []string{"guisante"}},
		{"Edamame", []string{"edamame"}},
		{"Tofu", []string{"tofu"}},
		{"Hummus", []string{"hummus", "humus"}},
	},
	Grain: {
		{"Tortitas de arroz", []string{"tortitas de arroz", "tortita de arroz"}},
		{"Pan integral", []string{"pan integral"}},
		{"Pan", []string{"pan", "tostada", "biscote"}},
		{"Arroz", []string{"arroz"}},
		{"Pasta", []string{"pasta", "espagueti", "macarron"}},
		{"Avena", []string{"avena"}},
		{"Quinoa", []string{"quinoa"}},
		{"Cuscús", []string{"cuscus"}},
		{"Cereales", []string{"cereal", "muesli", "granola"}},
	},
	Nut: {
		{"Nueces", []string{"nuez", "nueces"}},
		{"Almendras", []string{"almendra"}},
		{"Avellanas", []string{"avellana"}},
		{"Anacardos", []string{"anacardo"}},
		{"Pistachos", []string{"pistacho"}},
		{"Cacahuetes", []string{"cacahuete"}},
		{"Semillas de chía", []string{"chia"}},
		{"Frutos secos", []string{"frutos secos"}},
	},
	Egg: {
		{"Huevos", []string{"huevo", "clara", "tortilla"}},
	},
	Oil: {
		{"Aceite de oliva", []string{"aceite de oliva", "aove"}},
		{"Aceite", []string{"aceite"}},
		{"Vinagre", []string{"vinagre"}},
		{"Mostaza", []string{"mostaza"}},
		{"Orégano", []string{"oregano"}},
		{"Pimienta", []string{"pimienta"}},
		{"Miel", []string{"miel"}},
		{"Mayonesa", []string{"mayonesa"}},
	},
}

// compositePhrases mark dish descriptions rather than ingredients.
var compositePhrases = []string{
	"acompanado de",
	"acompanada de",
	"acompanamiento",
	"en salsa",
	"al horno con",
	"a la plancha con",
	"relleno de",
	"rellena de",
	"servido con",
	"servida con",
	"salteado con",
	"con guarnicion",
	"al gusto",
	"racion de",
	"plato de",
	"mezcla de",
}

// leadingStopWords cannot open a standalone ingredient name.
var leadingStopWords = map[string]struct{}{
	"con": {}, "de": {}, "para": {}, "sin": {}, "y": {}, "o": {},
	"el": {}, "la": {}, "los": {}, "las": {},
	"un": {}, "una": {}, "unos": {}, "unas": {},
}

type compiledGroup struct {
	name     string
	keywords []string
}

// compiledTable holds the keyword table with every keyword normalized.
var compiledTable = compileTable()

func compileTable() map[Category][]compiledGroup {
	out := make(map[Category][]compiledGroup, len(keywordTable))
	for c, groups := range keywordTable {
		cg := make([]compiledGroup, 0, len(groups))
		for _, g := range groups {
			kws := make([]string, 0, len(g.keywords))
			for _, k := range g.keywords {
				kws = append(kws, normalize(k))
			}
			cg = append(cg, compiledGroup{name: g.name, keywords: kws})
		}
		out[c] = cg
	}
	return out
}
