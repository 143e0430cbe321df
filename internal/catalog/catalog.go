package catalog

import "fmt"

// Labels is the classifier's class list in training order. Index i is output
// index i of the model, so entries must never be reordered without retraining.
var Labels = []string{
	"Apple___Apple_scab", "Apple___Black_rot", "Apple___Cedar_apple_rust", "Apple___healthy",
	"Cashew_anthracnose", "Cashew_gumosis", "Cashew_healthy", "Cashew_leaf_miner", "Cashew_red_rust",
	"Cassava_bacterial_blight", "Cassava_brown_spot", "Cassava_green_mite", "Cassava_healthy",
	"Cassava_mosaic", "Cherry_(including_sour)___Powdery_mildew", "Cherry_(including_sour)___healthy",
	"Corn_(maize)___Cercospora_leaf_spot Gray_leaf_spot", "Corn_(maize)___Common_rust_",
	"Corn_(maize)___Northern_Leaf_Blight", "Corn_(maize)___healthy", "Grape___Black_rot",
	"Grape___Esca_(Black_Measles)", "Grape___Leaf_blight_(Isariopsis_Leaf_Spot)", "Grape___healthy",
	"Insects_pest_ants", "Insects_pest_bees", "Insects_pest_beetle", "Insects_pest_catterpillar",
	"Insects_pest_earthworms", "Insects_pest_earwig", "Insects_pest_grasshopper", "Insects_pest_moth",
	"Insects_pest_slug", "Insects_pest_snail", "Insects_pest_wasp", "Insects_pest_weevil",
	"Orange___Haunglongbing_(Citrus_greening)", "Peach___Bacterial_spot", "Peach___healthy",
	"Pepper,_bell___Bacterial_spot", "Pepper,_bell___healthy", "Potato___Early_blight",
	"Potato___Late_blight", "Potato___healthy", "Rice_bacterial_leaf_blight", "Rice_brown_spot",
	"Rice_healthy", "Rice_leaf_blast", "Rice_leaf_scald", "Rice_narrow_brown_spot",
	"Squash___Powdery_mildew", "Strawberry___Leaf_scorch", "Strawberry___healthy",
	"Tomato___Bacterial_spot", "Tomato___Early_blight", "Tomato___Late_blight",
	"Tomato___Leaf_Mold", "Tomato___Septoria_leaf_spot", "Tomato___Spider_mites Two-spotted_spider_mite",
	"Tomato___Target_Spot", "Tomato___Tomato_Yellow_Leaf_Curl_Virus", "Tomato___Tomato_mosaic_virus",
	"Tomato___healthy",
}

var index = func() map[string]int {
	m := make(map[string]int, len(Labels))
	for i, l := range Labels {
		if _, dup := m[l]; dup {
			panic("catalog: duplicate label " + l)
		}
		m[l] = i
	}
	return m
}()

// Len returns the number of classes.
func Len() int { return len(Labels) }

// Label returns the label at output index i.
func Label(i int) (string, bool) {
	if i < 0 || i >= len(Labels) {
		return "", false
	}
	return Labels[i], true
}

// Index returns the output index of label, or -1.
func Index(label string) int {
	if i, ok := index[label]; ok {
		return i
	}
	return -1
}

func Contains(label string) bool {
	_, ok := index[label]
	return ok
}

// Validate checks a model output dimension against the catalog.
func Validate(outputDim int64) error {
	if outputDim != int64(len(Labels)) {
		return fmt.Errorf("model produces %d classes but catalog has %d labels", outputDim, len(Labels))
	}
	return nil
}
