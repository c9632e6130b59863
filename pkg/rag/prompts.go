package rag

// Prompt and context templates for the answer generator. The context labels
// encode a strict trust ordering: graph facts come from structured catalog
// fields and outrank semantically similar free text.

const answerPromptTemplate = `You are a helpful AI assistant. Answer the question based on the provided context.

Context:
%s

Question: %s

Provide a helpful, accurate answer based on the context above. If the context is relevant, use it to answer. Be concise.`

const graphContextHeader = "--- VERIFIED KNOWLEDGE GRAPH (High Reliability) ---\n" +
	"Contains structured facts and relationships. TRUST THIS DATA.\n\n"

const vectorContextHeader = "--- SEMANTIC SEARCH RESULTS (Lower Confidence) ---\n" +
	"May contain outdated or contradicting info. Use with caution.\n\n"

const trustOrderingInstruction = "IMPORTANT INSTRUCTION: You have two sources of information above.\n" +
	"1. The KNOWLEDGE GRAPH is the source of truth. Always prioritize it for entities, brands, and relationships.\n" +
	"2. The SEMANTIC SEARCH results are supplemental. If they contradict the Graph, IGNORE them.\n" +
	"3. If the Graph provides a list of products (e.g. 'Adidas makes X, Y, Z'), do NOT add random products from Search unless you are certain."
