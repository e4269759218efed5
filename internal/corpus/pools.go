package corpus

// ISBNs are real ISBN-13s the lookup service knows
var ISBNs = []string{
	"9780262046305", // Introduction to Algorithms
	"9780321928429", // C Primer Plus
	"9781292101767", // Computer Systems: A Programmer's Perspective
	"9780132856201", // Computer Networking
	"9781718503106", // The Rust Programming Language
	"9780134610993", // Artificial Intelligence: A Modern Approach
	"9780201103311", // Programming Pearls
	"9780201006506", // The Mythical Man-Month
}

// Websites are pages with stable titles
var Websites = []string{
	"https://git-scm.com",
	"https://pytorch.org",
	"https://json.nlohmann.me",
	"https://code.visualstudio.com",
	"https://www.jetbrains.com/clion",
}

// Articles are well-formed article entries with fixed ids
func Articles() []Entry {
	return []Entry{
		{
			"id":      "yu2024accelerating_wwwwwwwwwwww",
			"kind":    "article",
			"title":   "Accelerating Text-to-Image Editing via Cache-Enabled Sparse Diffusion Inference",
			"author":  "Yu, Zihao and Li, Haoyang and Fu, Fangcheng and Miao, Xupeng and Cui, Bin",
			"journal": "Proceedings of the AAAI Conference on Artificial Intelligence",
			"volume":  38,
			"issue":   15,
			"year":    2024,
		},
		{
			"id":      "liu2024infocon_kkkkkkkkkkk",
			"kind":    "article",
			"title":   "InfoCon: Concept Discovery with Generative and Discriminative Informativeness",
			"author":  "Ruizhe Liu and Qian Luo and Yanchao Yang",
			"journal": "The Twelfth International Conference on Learning Representations",
			"volume":  1,
			"issue":   2,
			"year":    2024,
		},
		{
			"id":      "ho2020denoising_6666666666",
			"kind":    "article",
			"title":   "Denoising Diffusion Probabilistic Models",
			"author":  "Jonathan Ho and Ajay Jain and Pieter Abbeel",
			"journal": "Conference on Neural Information Processing Systems",
			"volume":  1,
			"issue":   2,
			"year":    2020,
		},
	}
}
