package skill

// Fixed spoken strings.
const (
	cardTitle = "Atlas"

	speechGreeting     = "Salut, je suis Atlas. Que puis-je faire pour toi ?"
	speechWhatCanIDo   = "Que puis-je faire pour toi ?"
	speechAnythingElse = "Tu veux autre chose ?"
	speechHelp         = "Tu peux me poser n'importe quelle question, ou me demander un conseil pratique pour la maison."
	speechGoodbye      = "À plus !"

	speechConnectionTrouble = "Désolé, j'ai un souci de connexion pour le moment."
	speechNotUnderstood     = "Désolé, je n'ai pas compris. Peux-tu reformuler ?"
	promptRephrase          = "Peux-tu reformuler ?"

	speechError    = "Désolé, un problème est survenu. Essaie encore."
	speechRetryAsk = "Tu veux réessayer ?"
)
